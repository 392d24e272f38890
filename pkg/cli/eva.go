package cli

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/miission/scorecard/pkg/data"
	"github.com/miission/scorecard/pkg/metrics"
)

var (
	datasetFlag = &cli.StringFlag{
		Name:  "dataset",
		Usage: "Imported dataset name",
	}

	fileFlag = &cli.StringFlag{
		Name:  "file",
		Usage: "Evaluate a CSV file directly, without importing",
	}

	predFlag = &cli.StringFlag{
		Name:     "pred",
		Usage:    "Score column holding the predicted probability",
		Required: true,
	}

	metricsFlag = &cli.StringFlag{
		Name:  "metrics",
		Usage: "Comma-separated metric set [ks, lift, roc, pr]",
		Value: "ks,roc",
	}

	groupsFlag = &cli.StringFlag{
		Name:  "groups",
		Usage: "Number of rank groups, or N for one group per record (optional)",
	}

	seedFlag = &cli.Int64Flag{
		Name:  "seed",
		Usage: "Seed for the deterministic pre-shuffle (0 selects the default)",
	}

	titleFlag = &cli.StringFlag{
		Name:  "title",
		Usage: "Title attached to the result and its chart series",
	}

	evaCmd = &cli.Command{
		Name:            "eva",
		Aliases:         []string{"e"},
		Usage:           "Evaluate score performance (KS, Lift, ROC/AUC, Precision-Recall)",
		UsageText:       `scorecard eva --dataset train --pred prob --metrics ks,roc,lift,pr
   scorecard eva --file scored.csv --pred prob --groups 10`,
		HideHelpCommand: true,
		Action:          cmdEva,
		Flags: []cli.Flag{
			datasetFlag,
			fileFlag,
			predFlag,
			metricsFlag,
			groupsFlag,
			seedFlag,
			titleFlag,
		},
	}
)

func cmdEva(c *cli.Context) error {
	labels, preds, err := scoredInput(c)
	if err != nil {
		return err
	}

	opts, err := evaOptions(c)
	if err != nil {
		return err
	}

	res, err := metrics.EvaluatePerformance(labels, preds, opts)
	if err != nil {
		return errors.Wrap(err, "performance evaluation failed")
	}

	log.Debug().Msgf("evaluated %d observations", len(preds))
	return writeOutput(res)
}

func evaOptions(c *cli.Context) (metrics.EvaOptions, error) {
	opts := metrics.EvaOptions{
		Title:      c.String(titleFlag.Name),
		GroupCount: conf.GroupCount,
		Seed:       conf.Seed,
	}

	if raw := c.String(groupsFlag.Name); raw != "" {
		groups, err := parseGroups(raw)
		if err != nil {
			return opts, err
		}
		opts.GroupCount = groups
	}
	if c.IsSet(seedFlag.Name) {
		opts.Seed = c.Int64(seedFlag.Name)
	}

	names := strings.Split(c.String(metricsFlag.Name), ",")
	parsed, err := metrics.ParseMetrics(names)
	if err != nil {
		return opts, err
	}
	opts.Metrics = parsed
	return opts, nil
}

func scoredInput(c *cli.Context) ([]any, []float64, error) {
	pred := c.String(predFlag.Name)

	if path := c.String(fileFlag.Name); path != "" {
		rows, err := data.ReadCSV(path)
		if err != nil {
			return nil, nil, err
		}
		return pairsFromRows(rows, pred)
	}

	dataset := c.String(datasetFlag.Name)
	if dataset == "" {
		return nil, nil, errors.New("either --dataset or --file is required")
	}

	db, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	return data.ScoredPairs(db, dataset, pred)
}

func pairsFromRows(rows []data.Row, pred string) ([]any, []float64, error) {
	labels := make([]any, 0, len(rows))
	preds := make([]float64, 0, len(rows))
	for i, r := range rows {
		v, ok := r.Values[pred]
		if !ok {
			return nil, nil, errors.Errorf("row %d has no column: %s", i, pred)
		}
		preds = append(preds, v)
		if r.Label != nil {
			labels = append(labels, *r.Label)
		} else {
			labels = append(labels, nil)
		}
	}
	return labels, preds, nil
}

// parseGroups accepts a positive group count or the literal N meaning one
// group per record.
func parseGroups(raw string) (int, error) {
	if strings.EqualFold(raw, "n") {
		return metrics.GroupEachRecord, nil
	}
	groups, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid group count: %s", raw)
	}
	return groups, nil
}

func openDB() (*sql.DB, error) {
	if err := data.Init(dbFilePath); err != nil {
		return nil, err
	}
	return data.GetDB(dbFilePath)
}
