package cli

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/miission/scorecard/pkg/data"
)

var (
	importFilesFlag = &cli.StringSliceFlag{
		Name:     "file",
		Usage:    "Dataset to import as name=path (repeatable)",
		Required: true,
	}

	importCmd = &cli.Command{
		Name:            "import",
		Aliases:         []string{"i"},
		Usage:           "Import scored CSV files into the local database",
		UsageText:       `scorecard import --file train=train.csv --file test=test.csv`,
		HideHelpCommand: true,
		Action:          cmdImport,
		Flags: []cli.Flag{
			importFilesFlag,
		},
	}
)

type importSpec struct {
	dataset string
	path    string
	rows    []data.Row
}

func cmdImport(c *cli.Context) error {
	specs, err := parseImportSpecs(c.StringSlice(importFilesFlag.Name))
	if err != nil {
		return err
	}

	// Parse files concurrently, write sequentially. SQLite serializes
	// writers anyway, so a single writer avoids lock contention.
	var g errgroup.Group
	for i := range specs {
		spec := &specs[i]
		g.Go(func() error {
			rows, err := data.ReadCSV(spec.path)
			if err != nil {
				return errors.Wrapf(err, "error reading %s", spec.path)
			}
			spec.rows = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	for _, spec := range specs {
		if err := data.SaveRows(db, spec.dataset, spec.rows); err != nil {
			return errors.Wrapf(err, "error saving dataset %s", spec.dataset)
		}
		log.Debug().Msgf("imported %d rows into %s", len(spec.rows), spec.dataset)
	}

	list, err := data.ListDatasets(db)
	if err != nil {
		return err
	}
	return writeOutput(list)
}

func parseImportSpecs(raw []string) ([]importSpec, error) {
	specs := make([]importSpec, 0, len(raw))
	seen := make(map[string]bool)
	for _, item := range raw {
		name, path, ok := strings.Cut(item, "=")
		if !ok || name == "" || path == "" {
			return nil, errors.Errorf("invalid file spec, expected name=path: %s", item)
		}
		if seen[name] {
			return nil, errors.Errorf("duplicate dataset name: %s", name)
		}
		seen[name] = true
		specs = append(specs, importSpec{dataset: name, path: path})
	}
	return specs, nil
}
