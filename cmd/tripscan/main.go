package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"tripscan/internal/config"
	"tripscan/internal/nmealog"
	"tripscan/internal/pipeline"
	"tripscan/internal/sim"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      "tripscan",
		Usage:     "Pick the cheapest GPS trip and map its stops and left turns",
		Writer:    stdout,
		ErrWriter: os.Stderr,
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Render and score every trip log, then annotate the best one",
				ArgsUsage: "[log ...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to YAML config",
					},
					&cli.StringFlag{
						Name:  "env-file",
						Usage: "Optional dotenv file with TRIPSCAN_* overrides",
						Value: ".env",
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "Suppress progress logging",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c.String("config"), c.String("env-file"), c.Args().Slice())
					if err != nil {
						return err
					}
					logger := log.Default()
					if c.Bool("quiet") {
						logger = log.New(io.Discard, "", 0)
					}
					return runAnalyze(c.Context, c.App.Writer, cfg, logger)
				},
			},
			{
				Name:      "summary",
				Usage:     "Print statistics for one trip log",
				ArgsUsage: "<log>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "header-lines",
						Usage: "Preamble lines to skip",
						Value: nmealog.DefaultOptions().HeaderLines,
					},
					&cli.BoolFlag{
						Name:  "verify",
						Usage: "Reject rows whose sentence or checksum does not parse",
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("summary needs exactly one log path")
					}
					opts := nmealog.DefaultOptions()
					opts.HeaderLines = c.Int("header-lines")
					opts.VerifyChecksum = c.Bool("verify")
					return printLogSummary(c.App.Writer, c.Args().First(), opts)
				},
			},
			{
				Name:  "simulate",
				Usage: "Write a synthetic trip log from a YAML scenario",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "scenario",
						Aliases:  []string{"s"},
						Usage:    "Path to YAML scenario script",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Output log path",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					return runSimulate(c.String("scenario"), c.String("out"))
				},
			},
		},
	}
}

// loadConfig builds the run config: file (or defaults), then dotenv and
// environment overrides, then positional inputs replacing the file's list.
func loadConfig(path, envFile string, args []string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("config load failed: %w", err)
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return config.Config{}, fmt.Errorf("env file %s: %w", envFile, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return config.Config{}, err
	}
	if len(args) > 0 {
		cfg.Inputs = cfg.Inputs[:0]
		for _, a := range args {
			cfg.Inputs = append(cfg.Inputs, config.InputConfig{Path: a})
		}
	}
	if len(cfg.Inputs) == 0 {
		return config.Config{}, fmt.Errorf("inputs is required")
	}
	return cfg, cfg.Validate()
}

func runAnalyze(ctx context.Context, stdout io.Writer, cfg config.Config, logger *log.Logger) error {
	logger.Printf("tripscan analyzing %d trips (workers=%d)", len(cfg.Inputs), cfg.Workers)
	rep, err := pipeline.Run(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := rep.WriteText(stdout); err != nil {
		return err
	}
	if cfg.Report.Path != "" {
		if err := rep.WriteFile(cfg.Report.Path, cfg.Report.Format); err != nil {
			return err
		}
		logger.Printf("report written to %s (run %s)", cfg.Report.Path, rep.RunID)
	}
	return nil
}

func runSimulate(scenarioPath, out string) error {
	script, err := sim.LoadScenarioScript(scenarioPath)
	if err != nil {
		return fmt.Errorf("scenario load failed: %w", err)
	}
	scn, err := sim.NewScenario(script)
	if err != nil {
		return fmt.Errorf("scenario invalid: %w", err)
	}
	if err := scn.WriteLogFile(out); err != nil {
		return err
	}
	log.Printf("wrote %s (%s)", out, scn.Duration())
	return nil
}
