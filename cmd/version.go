/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package main

import (
	"fmt"
	goruntime "runtime"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// versionInfo is the build information printed by the version command.
type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"gitCommit" yaml:"gitCommit"`
	BuildDate string `json:"buildDate,omitempty" yaml:"buildDate,omitempty"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			info := versionInfo{
				Version:   version,
				GitCommit: gitCommit,
				BuildDate: buildDate,
				GoVersion: goruntime.Version(),
			}

			if opts.output != outputText {
				return encode(opts.stdout, opts.output, info)
			}

			_, err := fmt.Fprintf(opts.stdout, "modsyncer %s (%s) %s\n", info.Version, info.GitCommit, info.GoVersion)

			return errors.Wrap(err, "failed to write version")
		},
	}
}
