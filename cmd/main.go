/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

// Command modsyncer resolves mutually compatible versions for the mods and
// plugins installed on a Minecraft server.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
)

var (
	// Version information set via ldflags.
	version   = "dev"
	gitCommit = "unknown"
	buildDate = ""
)

// Exit codes.
const (
	exitOK        = 0
	exitError     = 1
	exitConflicts = 2
)

func main() {
	root := newRootCmd(os.Stdout, os.Stderr, os.LookupEnv)

	err := root.Execute()
	if err != nil && !errors.Is(err, errConflicts) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errConflicts):
		return exitConflicts
	default:
		return exitError
	}
}

// newLogHandler builds the slog handler selected by --log-level and --log-format.
// Unknown values fall back to info and json with a warning on stderr.
func newLogHandler(logLevel, logFormat string, stderr io.Writer) slog.Handler {
	var slogLevel slog.Level

	switch logLevel {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
		fmt.Fprintf(stderr, "WARNING: unknown log level %q, defaulting to \"info\"\n", logLevel)
	}

	handlerOpts := &slog.HandlerOptions{
		Level: slogLevel,
	}

	switch logFormat {
	case "text":
		return slog.NewTextHandler(stderr, handlerOpts)
	case "json":
		return slog.NewJSONHandler(stderr, handlerOpts)
	default:
		fmt.Fprintf(stderr, "WARNING: unknown log format %q, defaulting to \"json\"\n", logFormat)

		return slog.NewJSONHandler(stderr, handlerOpts)
	}
}
