/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package main

import (
	"github.com/spf13/cobra"
)

func newScanCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List installed mods found in the mods folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			p, err := newPipeline(cfg, "")
			if err != nil {
				return err
			}

			entries, issues, err := p.scan(cmd.Context())
			if err != nil {
				return err
			}

			return renderScan(opts.stdout, opts.output, newScanReport(entries, issues))
		},
	}
}
