/*
main.go - Application entry point

PURPOSE:
  Command-line front end of the property-management core.

COMMANDS:
  serve    Start the HTTP API (default)
  alerts   Print the due lease alerts for a date, or write them to an
           XLSX workbook

FLAGS:
  --config, -c   Path to the YAML config file (env: APP_CONFIG_FILE).
                 A missing file falls back to the built-in defaults.

ENVIRONMENT:
  A .env file in the working directory is loaded at startup. The config
  file may reference any variable as ${NAME}.

EXAMPLES:
  ./server --config config/config.yaml serve
  ./server alerts --date 2025-03-15
  ./server alerts --out alerts.xlsx

SEE ALSO:
  - app/app.go: Wiring and graceful shutdown
  - config/config.go: Configuration sections
*/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/jtbgroup/immocare-sub000/api"
	"github.com/jtbgroup/immocare-sub000/app"
	"github.com/jtbgroup/immocare-sub000/config"
	"github.com/jtbgroup/immocare-sub000/export"
	"github.com/jtbgroup/immocare-sub000/generic"
	"github.com/jtbgroup/immocare-sub000/lease"
	"github.com/jtbgroup/immocare-sub000/logging"
)

func loadConfig(cmd *cli.Command) (*config.Config, *zap.Logger, error) {
	cfg := config.NewDefaultConfig()
	if err := config.LoadOrDefault(cmd.String("config"), cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, logging.New(cfg.App.Logging()), nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := app.Run(ctx, app.WithConfig(cfg), app.WithLogger(log)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func alerts(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	today := generic.Today()
	if raw := cmd.String("date"); raw != "" {
		if today, err = generic.ParseDate(raw); err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	comps, err := app.Build(cfg, log)
	if err != nil {
		return err
	}
	defer comps.Close()

	list, err := comps.Leases.Alerts(ctx, today)
	if err != nil {
		return fmt.Errorf("compute alerts: %w", err)
	}

	out := cmd.String("out")
	if out == "" {
		return printAlerts(os.Stdout, list)
	}

	data, err := export.NewAlertGenerator().Generate(list, today)
	if err != nil {
		return fmt.Errorf("generate workbook: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	log.Info("alerts exported", zap.String("path", out), zap.Int("count", len(list)))
	return nil
}

func printAlerts(w io.Writer, list []lease.Alert) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(api.ToAlertDTOs(list))
}

func main() {
	cmd := &cli.Command{
		Name:   "immocare",
		Usage:  "Rent history, lease lifecycle and lease reminders for housing units",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API",
				Action: serve,
			},
			{
				Name:   "alerts",
				Usage:  "List due indexation and end-of-notice reminders",
				Action: alerts,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "date",
						Usage: "Reference date (YYYY-MM-DD), defaults to today",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Write an XLSX workbook to this path instead of printing JSON",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "application error: %v\n", err)
		os.Exit(1)
	}
}
