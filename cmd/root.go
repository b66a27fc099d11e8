/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/lexfrei/modsyncer/internal/config"
)

// errConflicts is returned by resolve when the plan holds conflicts.
var errConflicts = errors.New("plan has conflicts")

type rootOptions struct {
	configPath  string
	logLevel    string
	logFormat   string
	metricsFile string
	output      string

	stdout io.Writer
	stderr io.Writer
	lookupEnv func(string) (string, bool)
}

func newRootCmd(stdout, stderr io.Writer, lookupEnv func(string) (string, bool)) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr, lookupEnv: lookupEnv}

	root := &cobra.Command{
		Use:           "modsyncer",
		Short:         "Find mutually compatible mod and plugin versions",
		Long:          "Scan a server's mods folder, look every mod up in its registries and propose a conflict-free set of upgrades.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			slog.SetDefault(slog.New(newLogHandler(opts.logLevel, opts.logFormat, opts.stderr)))

			return validateOutput(opts.output)
		},
	}

	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "",
		"Path to the config file (default "+config.DefaultPath+" when present)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format (json, text)")
	flags.StringVar(&opts.metricsFile, "metrics-file", "",
		"Write Prometheus metrics in text exposition format to this file after each run")
	flags.StringVarP(&opts.output, "output", "o", outputText, "Output format: text|json|yaml")

	root.AddCommand(
		newResolveCmd(opts),
		newScanCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(opts),
	)

	return root
}

// loadConfig reads --config, or DefaultPath when it exists, or falls back to defaults.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	path := o.configPath

	if path == "" {
		if _, err := os.Stat(config.DefaultPath); err != nil {
			slog.Debug("No config file, using defaults", "path", config.DefaultPath)

			cfg := config.Default()
			cfg.ApplyEnv(o.lookupEnv)

			return cfg, nil
		}

		path = config.DefaultPath
	}

	cfg, err := config.LoadWithEnv(path, o.lookupEnv)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	slog.Debug("Loaded config", "path", path, "modsDir", cfg.ModsDir, "registries", cfg.Registries.Order)

	return cfg, nil
}
