package cli

import (
	"database/sql"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/miission/scorecard/pkg/data"
	"github.com/miission/scorecard/pkg/metrics"
)

var (
	psiDatasetsFlag = &cli.StringSliceFlag{
		Name:     "dataset",
		Usage:    "Dataset to compare (repeatable, first one is the expected baseline)",
		Required: true,
	}

	psiVariablesFlag = &cli.StringSliceFlag{
		Name:  "var",
		Usage: "Score columns to compare (optional, defaults to all)",
	}

	tickFlag = &cli.Float64Flag{
		Name:  "tick",
		Usage: "Bin width for the continuous-score grid",
	}

	rangeFlag = &cli.StringFlag{
		Name:  "range",
		Usage: "Score range as low,high (optional, defaults to the observed span)",
	}

	psiCmd = &cli.Command{
		Name:            "psi",
		Aliases:         []string{"p"},
		Usage:           "Measure score distribution drift between datasets (PSI)",
		UsageText:       `scorecard psi --dataset train --dataset test --tick 50
   scorecard psi --dataset train --dataset oot --var score --range 100,800`,
		HideHelpCommand: true,
		Action:          cmdPSI,
		Flags: []cli.Flag{
			psiDatasetsFlag,
			psiVariablesFlag,
			tickFlag,
			rangeFlag,
			seedFlag,
			titleFlag,
		},
	}
)

func cmdPSI(c *cli.Context) error {
	names := c.StringSlice(psiDatasetsFlag.Name)
	if len(names) < 2 {
		return errors.New("at least 2 --dataset values are required")
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	variables := c.StringSlice(psiVariablesFlag.Name)
	pops := make([]metrics.Population, 0, len(names))
	for _, n := range names {
		if err := checkVariables(db, n, variables); err != nil {
			return err
		}
		pop, err := data.LoadPopulation(db, n, variables)
		if err != nil {
			return err
		}
		pops = append(pops, *pop)
	}

	opts, err := stabilityOptions(c)
	if err != nil {
		return err
	}

	res, err := metrics.EvaluateStability(c.String(titleFlag.Name), pops, opts)
	if err != nil {
		return errors.Wrap(err, "stability evaluation failed")
	}
	return writeOutput(res)
}

// checkVariables rejects requested score columns the dataset does not carry,
// naming the offender instead of failing deep inside the column load.
func checkVariables(db *sql.DB, dataset string, requested []string) error {
	if len(requested) == 0 {
		return nil
	}
	available, err := data.Variables(db, dataset)
	if err != nil {
		return err
	}
	for _, v := range requested {
		if !data.Contains(available, v) {
			return errors.Errorf("dataset %s has no variable: %s (has: %s)",
				dataset, v, strings.Join(available, ", "))
		}
	}
	return nil
}

func stabilityOptions(c *cli.Context) (metrics.StabilityOptions, error) {
	opts := metrics.StabilityOptions{
		TickWidth: conf.TickWidth,
		Seed:      conf.Seed,
	}

	if c.IsSet(tickFlag.Name) {
		opts.TickWidth = c.Float64(tickFlag.Name)
	}
	if c.IsSet(seedFlag.Name) {
		opts.Seed = c.Int64(seedFlag.Name)
	}

	if raw := c.String(rangeFlag.Name); raw != "" {
		scoreRange, err := parseRange(raw)
		if err != nil {
			return opts, err
		}
		opts.ScoreRange = scoreRange
	}
	return opts, nil
}

// parseRange reads a low,high pair.
func parseRange(raw string) ([2]float64, error) {
	var out [2]float64
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return out, errors.Errorf("invalid range, expected low,high: %s", raw)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, errors.Wrapf(err, "invalid range bound: %s", p)
		}
		// ParseFloat accepts "inf" and "nan"; the grid cannot.
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return out, errors.Errorf("range bound must be finite: %s", p)
		}
		out[i] = v
	}
	if out[1] <= out[0] {
		return out, errors.Errorf("range high must exceed low: %s", raw)
	}
	return out, nil
}
