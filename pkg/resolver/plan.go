/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package resolver

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/lexfrei/modsyncer/pkg/registry"
	"github.com/lexfrei/modsyncer/pkg/version"
)

// Target is the version chosen for one installed entry.
type Target struct {
	ID      string
	Source  string
	Current string
	Version string
	Release registry.Release
}

// Update is a target that differs from the installed version.
type Update struct {
	ID          string `json:"id" yaml:"id"`
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`
	From        string `json:"from" yaml:"from"`
	To          string `json:"to" yaml:"to"`
	Downgrade   bool   `json:"downgrade,omitempty" yaml:"downgrade,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty" yaml:"downloadUrl,omitempty"`
	Hash        string `json:"hash,omitempty" yaml:"hash,omitempty"`
}

// Failure is a lookup that did not produce a record.
type Failure struct {
	ID  string
	Err error
	// NotFound is set when no registry knows the identifier.
	NotFound bool
	// Transient is set for network failures that persisted through retries.
	Transient bool
}

// Plan is the outcome of a resolution run. It is not modified after
// construction and accessors return copies.
type Plan struct {
	gameVersion string
	targets     map[string]Target
	order       []string
	conflicts   []Conflict
	failures    []Failure
}

func newPlan(gameVersion string, participants []*participant, conflicts []Conflict, failures []Failure) *Plan {
	plan := &Plan{
		gameVersion: gameVersion,
		targets:     make(map[string]Target, len(participants)),
		conflicts:   conflicts,
		failures:    failures,
	}

	for _, p := range participants {
		if !p.resolved() {
			continue
		}

		rel := p.chosen()
		source := p.record.Source

		if source == "" {
			source = p.entry.Source
		}

		plan.targets[p.entry.ID] = Target{
			ID:      p.entry.ID,
			Source:  source,
			Current: p.entry.Version,
			Version: rel.Version,
			Release: rel,
		}
		plan.order = append(plan.order, p.entry.ID)
	}

	sort.Strings(plan.order)

	return plan
}

// GameVersion returns the game version the plan was resolved for.
func (p *Plan) GameVersion() string {
	return p.gameVersion
}

// Target returns the chosen version for id.
func (p *Plan) Target(id string) (Target, bool) {
	t, ok := p.targets[id]

	return t, ok
}

// Targets returns all targets ordered by identifier.
func (p *Plan) Targets() []Target {
	out := make([]Target, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.targets[id])
	}

	return out
}

// Conflicts returns the detected conflicts.
func (p *Plan) Conflicts() []Conflict {
	return append([]Conflict(nil), p.conflicts...)
}

// Failures returns the lookups that failed, ordered by identifier.
func (p *Plan) Failures() []Failure {
	return append([]Failure(nil), p.failures...)
}

// HasConflicts reports whether any conflict was detected.
func (p *Plan) HasConflicts() bool {
	return len(p.conflicts) > 0
}

// Updates returns the targets whose version differs from the installed one.
func (p *Plan) Updates() []Update {
	var out []Update

	for _, id := range p.order {
		t := p.targets[id]
		if t.Version == t.Current {
			continue
		}

		down, err := version.IsDowngrade(t.Current, t.Version)

		out = append(out, Update{
			ID:          t.ID,
			Source:      t.Source,
			From:        t.Current,
			To:          t.Version,
			Downgrade:   err == nil && down,
			DownloadURL: t.Release.DownloadURL,
			Hash:        t.Release.Hash,
		})
	}

	return out
}

// Fingerprint is a stable digest of the plan for change detection between runs.
func (p *Plan) Fingerprint() string {
	h := xxhash.New()

	write := func(parts ...string) {
		for _, part := range parts {
			_, _ = h.WriteString(part)
			_, _ = h.WriteString("\x1f")
		}

		_, _ = h.WriteString("\n")
	}

	write("game", p.gameVersion)

	for _, id := range p.order {
		t := p.targets[id]
		write("target", t.ID, t.Current, t.Version)
	}

	conflicts := p.Conflicts()
	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].String() < conflicts[j].String()
	})

	for _, c := range conflicts {
		write("conflict", c.A, c.B, string(c.Kind), c.Reason)
	}

	for _, f := range p.failures {
		write("failure", f.ID, strconv.FormatBool(f.NotFound), strconv.FormatBool(f.Transient))
	}

	return fmt.Sprintf("%016x", h.Sum64())
}

// FailureReport is the printable form of a Failure.
type FailureReport struct {
	ID        string `json:"id" yaml:"id"`
	Error     string `json:"error" yaml:"error"`
	NotFound  bool   `json:"notFound,omitempty" yaml:"notFound,omitempty"`
	Transient bool   `json:"transient,omitempty" yaml:"transient,omitempty"`
}

// Report summarizes a plan for output.
type Report struct {
	GameVersion string          `json:"gameVersion,omitempty" yaml:"gameVersion,omitempty"`
	Fingerprint string          `json:"fingerprint" yaml:"fingerprint"`
	Checked     int             `json:"checked" yaml:"checked"`
	Updated     int             `json:"updated" yaml:"updated"`
	Failed      int             `json:"failed" yaml:"failed"`
	Conflicted  int             `json:"conflicts" yaml:"conflicts"`
	Updates     []Update        `json:"updates,omitempty" yaml:"updates,omitempty"`
	Conflicts   []Conflict      `json:"conflictList,omitempty" yaml:"conflictList,omitempty"`
	Failures    []FailureReport `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Report builds the summary of the plan.
func (p *Plan) Report() Report {
	updates := p.Updates()

	report := Report{
		GameVersion: p.gameVersion,
		Fingerprint: p.Fingerprint(),
		Checked:     len(p.order) + len(p.failures),
		Updated:     len(updates),
		Failed:      len(p.failures),
		Conflicted:  len(p.conflicts),
		Updates:     updates,
		Conflicts:   p.Conflicts(),
	}

	for _, f := range p.failures {
		report.Failures = append(report.Failures, FailureReport{
			ID:        f.ID,
			Error:     f.Err.Error(),
			NotFound:  f.NotFound,
			Transient: f.Transient,
		})
	}

	return report
}
