/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/lexfrei/modsyncer/pkg/mods"
	"github.com/lexfrei/modsyncer/pkg/resolver"
)

// Output formats.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	default:
		return errors.Newf("unknown output format %q, expected text, json or yaml", format)
	}
}

// encode writes v as JSON or YAML.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return errors.Wrap(enc.Encode(v), "failed to encode json")
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "failed to encode yaml")
		}

		return errors.Wrap(enc.Close(), "failed to encode yaml")
	default:
		return errors.Newf("unknown output format %q", format)
	}
}

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
	dim     lipgloss.Style
	section lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)

	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		label:   r.NewStyle().Foreground(lipgloss.Color("245")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("10")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		bad:     r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		dim:     r.NewStyle().Foreground(lipgloss.Color("241")),
		section: r.NewStyle().Bold(true).Underline(true),
	}
}

// renderReport writes report in format.
func renderReport(w io.Writer, format string, report resolver.Report) error {
	if format != outputText {
		return encode(w, format, report)
	}

	s := newStyles(w)

	var b strings.Builder

	fmt.Fprintln(&b, s.title.Render("modsyncer plan"))

	if report.GameVersion != "" {
		fmt.Fprintf(&b, "%s %s\n", s.label.Render("game version:"), report.GameVersion)
	}

	fmt.Fprintf(&b, "%s %d checked, %s, %s, %s\n",
		s.label.Render("summary:"),
		report.Checked,
		s.ok.Render(fmt.Sprintf("%d updated", report.Updated)),
		s.warn.Render(fmt.Sprintf("%d failed", report.Failed)),
		s.bad.Render(fmt.Sprintf("%d conflicts", report.Conflicted)),
	)

	if len(report.Updates) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, s.section.Render("Updates"))

		width := 0
		for _, u := range report.Updates {
			width = max(width, len(u.ID))
		}

		idStyle := lipgloss.NewStyle().Width(width)

		for _, u := range report.Updates {
			arrow := s.ok.Render("->")
			if u.Downgrade {
				arrow = s.warn.Render("<-")
			}

			line := fmt.Sprintf("  %s  %s %s %s", idStyle.Render(u.ID), u.From, arrow, u.To)
			if u.Source != "" {
				line += " " + s.dim.Render("("+u.Source+")")
			}

			fmt.Fprintln(&b, line)
		}
	}

	if len(report.Conflicts) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, s.section.Render("Conflicts"))

		for _, c := range report.Conflicts {
			fmt.Fprintf(&b, "  %s %s\n", s.bad.Render(string(c.Kind)), c.Reason)
		}
	}

	if len(report.Failures) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, s.section.Render("Failures"))

		for _, f := range report.Failures {
			kind := "error"

			switch {
			case f.NotFound:
				kind = "not found"
			case f.Transient:
				kind = "network"
			}

			fmt.Fprintf(&b, "  %s %s %s\n", f.ID, s.warn.Render("["+kind+"]"), s.dim.Render(f.Error))
		}
	}

	fmt.Fprintf(&b, "\n%s %s\n", s.label.Render("fingerprint:"), s.dim.Render(report.Fingerprint))

	_, err := io.WriteString(w, b.String())

	return errors.Wrap(err, "failed to write report")
}

// scanReport is the printable result of a scan.
type scanReport struct {
	Entries []scanEntry `json:"entries" yaml:"entries"`
	Issues  []scanIssue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

type scanEntry struct {
	ID                string   `json:"id" yaml:"id"`
	Name              string   `json:"name,omitempty" yaml:"name,omitempty"`
	Version           string   `json:"version" yaml:"version"`
	Source            string   `json:"source,omitempty" yaml:"source,omitempty"`
	File              string   `json:"file,omitempty" yaml:"file,omitempty"`
	SHA256            string   `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Dependencies      []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Incompatibilities []string `json:"incompatibilities,omitempty" yaml:"incompatibilities,omitempty"`
}

type scanIssue struct {
	File  string `json:"file" yaml:"file"`
	Error string `json:"error" yaml:"error"`
}

func newScanReport(entries []mods.Entry, issues []mods.ScanIssue) scanReport {
	report := scanReport{Entries: make([]scanEntry, 0, len(entries))}

	for _, e := range entries {
		se := scanEntry{
			ID:      e.ID,
			Name:    e.Name,
			Version: e.Version,
			Source:  e.Source,
			File:    e.File,
			SHA256:  e.SHA256,
		}

		for _, d := range e.Dependencies {
			dep := d.String()
			if d.Optional {
				dep += " (optional)"
			}

			se.Dependencies = append(se.Dependencies, dep)
		}

		for _, d := range e.Incompatibilities {
			se.Incompatibilities = append(se.Incompatibilities, d.String())
		}

		report.Entries = append(report.Entries, se)
	}

	for _, issue := range issues {
		report.Issues = append(report.Issues, scanIssue{File: issue.File, Error: issue.Err.Error()})
	}

	return report
}

func renderScan(w io.Writer, format string, report scanReport) error {
	if format != outputText {
		return encode(w, format, report)
	}

	s := newStyles(w)

	var b strings.Builder

	fmt.Fprintf(&b, "%s %d installed\n", s.title.Render("modsyncer scan"), len(report.Entries))

	for _, e := range report.Entries {
		line := fmt.Sprintf("  %s %s", e.ID, e.Version)
		if e.Source != "" {
			line += " " + s.dim.Render("("+e.Source+")")
		}

		fmt.Fprintln(&b, line)

		for _, d := range e.Dependencies {
			fmt.Fprintf(&b, "    %s %s\n", s.label.Render("depends"), d)
		}

		for _, d := range e.Incompatibilities {
			fmt.Fprintf(&b, "    %s %s\n", s.label.Render("breaks"), d)
		}
	}

	for _, issue := range report.Issues {
		fmt.Fprintf(&b, "  %s %s %s\n", s.warn.Render("skipped"), issue.File, s.dim.Render(issue.Error))
	}

	_, err := io.WriteString(w, b.String())

	return errors.Wrap(err, "failed to write scan")
}
