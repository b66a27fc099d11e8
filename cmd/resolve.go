/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func newResolveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Scan installed mods and print the upgrade plan",
		Long: "Scan the mods folder, look every mod up in the configured registries and print the " +
			"highest mutually compatible versions. Exits with code 2 when conflicts remain.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			p, err := newPipeline(cfg, opts.metricsFile)
			if err != nil {
				return err
			}

			plan, err := p.run(cmd.Context())
			if err != nil {
				return err
			}

			report := plan.Report()

			slog.InfoContext(cmd.Context(), "Plan ready",
				"updates", report.Updated, "conflicts", report.Conflicted, "failures", report.Failed)

			if err := renderReport(opts.stdout, opts.output, report); err != nil {
				return err
			}

			if plan.HasConflicts() {
				return errConflicts
			}

			return nil
		},
	}
}
