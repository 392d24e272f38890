package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/miission/scorecard/pkg/config"
	"github.com/miission/scorecard/pkg/data"
	"github.com/miission/scorecard/pkg/logging"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	name    = "scorecard"
	version = "v0.0.1-default"
	commit  = ""

	dbFilePath   = ""
	outputFormat = formatJSON

	conf = &config.Config{
		Seed:       186,
		GroupCount: 20,
		TickWidth:  50,
	}

	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	dbFilePathFlag = &cli.StringFlag{
		Name:  "db",
		Usage: fmt.Sprintf("Path to the Sqlite database file (optional, defaults to $HOME/.%s/%s)", name, data.DataFileName),
	}

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.Init(zerolog.InfoLevel)

	app := newApp()
	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("fatal error")
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                 name,
		Version:              fmt.Sprintf("%s (commit: %s)", version, commit),
		Compiled:             time.Now(),
		EnableBashCompletion: true,
		HideHelpCommand:      true,
		Usage:                "CLI for scorecard performance (KS, ROC/AUC, Lift, PR) and stability (PSI) metrics",
		Flags: []cli.Flag{
			debugFlag,
			dbFilePathFlag,
			formatFlag,
		},
		Before: applyFlags,
		Commands: []*cli.Command{
			importCmd,
			evaCmd,
			psiCmd,
			resetCmd,
			serverCmd,
		},
	}
}

func applyFlags(c *cli.Context) error {
	dir, _, err := config.GetOrCreateHomeDir(name)
	if err == nil {
		if fromFile, err := config.ReadOrCreate(dir); err == nil {
			conf = fromFile
		} else {
			log.Debug().Err(err).Msg("config read failed, using defaults")
		}
	} else {
		log.Debug().Err(err).Msg("no home dir, using defaults")
	}

	// The debug flag tops whatever the config file says.
	if c.Bool(debugFlag.Name) {
		logging.Init(zerolog.DebugLevel)
	} else if conf.LogLevel != "" {
		logging.Init(logging.ParseLevel(conf.LogLevel))
	}

	dbFilePath = conf.DBPath
	if path := c.String(dbFilePathFlag.Name); path != "" {
		dbFilePath = path
	}

	if f := c.String(formatFlag.Name); f != "" {
		outputFormat = f
	}
	return nil
}

func writeOutput(v any) error {
	switch outputFormat {
	case formatYAML:
		return yaml.NewEncoder(os.Stdout).Encode(v)
	default:
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "  ")
		return e.Encode(v)
	}
}
