package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/miission/scorecard/pkg/data"
)

var (
	resetDatasetFlag = &cli.StringFlag{
		Name:  "dataset",
		Usage: "Delete only this dataset instead of the whole database",
	}

	yesFlag = &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Skip the confirmation prompt",
	}

	resetCmd = &cli.Command{
		Name:            "reset",
		Usage:           "Delete imported data and start fresh",
		HideHelpCommand: true,
		Action:          cmdReset,
		Flags: []cli.Flag{
			resetDatasetFlag,
			yesFlag,
		},
	}
)

func cmdReset(c *cli.Context) error {
	if name := c.String(resetDatasetFlag.Name); name != "" {
		return deleteDataset(c, name)
	}

	if !c.Bool(yesFlag.Name) {
		ok, err := confirm(fmt.Sprintf("This will permanently delete all data in %s", dbFilePath))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "error deleting database")
	}
	log.Debug().Msgf("database deleted: %s", dbFilePath)

	if err := data.Init(dbFilePath); err != nil {
		return errors.Wrap(err, "error re-initializing database")
	}

	fmt.Println("Reset complete.")
	return nil
}

func deleteDataset(c *cli.Context, name string) error {
	if !c.Bool(yesFlag.Name) {
		ok, err := confirm(fmt.Sprintf("This will permanently delete dataset %s", name))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := data.DeleteDataset(db, name); err != nil {
		return errors.Wrapf(err, "error deleting dataset %s", name)
	}

	list, err := data.ListDatasets(db)
	if err != nil {
		return err
	}
	return writeOutput(list)
}

func confirm(msg string) (bool, error) {
	fmt.Println(msg)
	fmt.Print("Are you sure? [y/N]: ")

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, errors.Wrap(err, "error reading input")
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y"), nil
}
