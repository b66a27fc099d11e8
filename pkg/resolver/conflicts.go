/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package resolver

import (
	"fmt"

	"github.com/lexfrei/modsyncer/pkg/mods"
	"github.com/lexfrei/modsyncer/pkg/registry"
)

// ConflictKind classifies a conflict.
type ConflictKind string

const (
	// ConflictIncompatible means a chosen version falls in a declared incompatibility range.
	ConflictIncompatible ConflictKind = "incompatible"
	// ConflictUnsatisfied means a chosen version is outside a required dependency range.
	ConflictUnsatisfied ConflictKind = "unsatisfied-dependency"
	// ConflictMissing means a required dependency is not installed.
	ConflictMissing ConflictKind = "missing-dependency"
	// ConflictGameVersion means no release matches the game version or channel policy.
	ConflictGameVersion ConflictKind = "game-version"
)

// Conflict is a problem between two mods, or a single mod when B is empty.
type Conflict struct {
	A      string       `json:"a" yaml:"a"`
	B      string       `json:"b,omitempty" yaml:"b,omitempty"`
	Kind   ConflictKind `json:"kind" yaml:"kind"`
	Reason string       `json:"reason" yaml:"reason"`
}

func (c Conflict) String() string {
	if c.B == "" {
		return fmt.Sprintf("%s: %s", c.Kind, c.Reason)
	}

	return fmt.Sprintf("%s (%s, %s): %s", c.Kind, c.A, c.B, c.Reason)
}

// selectVersions gives every participant the highest candidate consistent
// with the current choices of all others, repeating until nothing changes.
// It returns the number of passes run, maxPasses+1 when no fixpoint was reached.
func selectVersions(participants []*participant, maxPasses int) int {
	for pass := 1; pass <= maxPasses; pass++ {
		changed := false

		for i, p := range participants {
			if len(p.candidates) == 1 {
				continue
			}

			best, bestViolations := p.choice, -1

			for c := range p.candidates {
				v := violations(participants, i, p.candidates[c])
				if bestViolations == -1 || v < bestViolations {
					best, bestViolations = c, v
				}

				if v == 0 {
					break
				}
			}

			if best != p.choice {
				p.choice = best
				changed = true
			}
		}

		if !changed {
			return pass
		}
	}

	return maxPasses + 1
}

// violations counts broken declarations between rel as the choice of
// participants[i] and the current choices of every other participant.
func violations(participants []*participant, i int, rel registry.Release) int {
	count := 0
	self := participants[i]

	for j, other := range participants {
		if j == i {
			continue
		}

		theirs := other.chosen()

		count += broken(rel, other, theirs.Version)
		count += broken(theirs, self, rel.Version)
	}

	return count
}

// broken counts declarations of rel that target's version breaks.
func broken(rel registry.Release, target *participant, targetVersion string) int {
	count := 0

	for _, dep := range rel.Dependencies {
		if target.matches(dep.ID) && !dep.Range.Contains(targetVersion) {
			count++
		}
	}

	for _, inc := range rel.Incompatibilities {
		if target.matches(inc.ID) && inc.Range.Contains(targetVersion) {
			count++
		}
	}

	return count
}

// detectConflicts scans every pair of chosen versions.
func detectConflicts(participants []*participant) []Conflict {
	var conflicts []Conflict

	seen := make(map[Conflict]bool)
	add := func(c Conflict) {
		if !seen[c] {
			seen[c] = true
			conflicts = append(conflicts, c)
		}
	}

	for i, p := range participants {
		rel := p.chosen()

		for _, dep := range rel.Dependencies {
			found := false

			for j, other := range participants {
				if j == i || !other.matches(dep.ID) {
					continue
				}

				found = true
				otherVersion := other.chosen().Version

				if !dep.Range.Contains(otherVersion) {
					add(Conflict{
						A:    p.entry.ID,
						B:    other.entry.ID,
						Kind: ConflictUnsatisfied,
						Reason: fmt.Sprintf("%s %s requires %s %s, got %s",
							p.entry.ID, rel.Version, other.entry.ID, dep.Range, otherVersion),
					})
				}
			}

			if !found && !dep.Optional && !mods.IsPlatformID(dep.ID) {
				add(Conflict{
					A:      p.entry.ID,
					B:      dep.ID,
					Kind:   ConflictMissing,
					Reason: fmt.Sprintf("%s %s requires %s %s, which is not installed", p.entry.ID, rel.Version, dep.ID, dep.Range),
				})
			}
		}

		for _, inc := range rel.Incompatibilities {
			for j, other := range participants {
				if j == i || !other.matches(inc.ID) {
					continue
				}

				otherVersion := other.chosen().Version

				if inc.Range.Contains(otherVersion) {
					add(Conflict{
						A:    p.entry.ID,
						B:    other.entry.ID,
						Kind: ConflictIncompatible,
						Reason: fmt.Sprintf("%s %s is incompatible with %s %s (declared %s)",
							p.entry.ID, rel.Version, other.entry.ID, otherVersion, inc.Range),
					})
				}
			}
		}
	}

	return conflicts
}

// searchBudget caps the nodes visited by improveSelection.
const searchBudget = 20000

// improveSelection repairs a fixpoint that still breaks declarations. A fixpoint
// only changes one mod at a time, so it can miss assignments that need two mods
// to move together. The installed set is tried first, then a depth-first search
// over the candidate lists, best candidates first, bounded by searchBudget.
// The current choices are replaced only by an assignment with strictly fewer
// broken declarations. It returns the broken declarations left.
func improveSelection(participants []*participant) int {
	best := totalViolations(participants)
	if best == 0 {
		return 0
	}

	bestChoice := choices(participants)

	if installed, ok := installedChoices(participants); ok {
		restore(participants, installed)

		if v := totalViolations(participants); v < best {
			best, bestChoice = v, installed
		}
	}

	s := &search{participants: participants, best: best, bestChoice: bestChoice, budget: searchBudget}
	s.visit(0, 0)

	restore(participants, s.bestChoice)

	return s.best
}

type search struct {
	participants []*participant
	best         int
	bestChoice   []int
	budget       int
}

func (s *search) visit(k, broken int) {
	if s.best == 0 || s.budget <= 0 || broken >= s.best {
		return
	}

	s.budget--

	if k == len(s.participants) {
		s.best, s.bestChoice = broken, choices(s.participants)

		return
	}

	p := s.participants[k]
	for c := range p.candidates {
		p.choice = c
		s.visit(k+1, broken+violationsBefore(s.participants, k))

		if s.best == 0 {
			return
		}
	}
}

// violationsBefore counts broken declarations between participants[k] and
// every participant ahead of it.
func violationsBefore(participants []*participant, k int) int {
	count := 0
	self := participants[k]
	mine := self.chosen()

	for _, other := range participants[:k] {
		theirs := other.chosen()
		count += broken(mine, other, theirs.Version)
		count += broken(theirs, self, mine.Version)
	}

	return count
}

func totalViolations(participants []*participant) int {
	count := 0
	for k := range participants {
		count += violationsBefore(participants, k)
	}

	return count
}

func choices(participants []*participant) []int {
	out := make([]int, len(participants))
	for i, p := range participants {
		out[i] = p.choice
	}

	return out
}

// installedChoices points every participant at its installed version. It fails
// when a pin removed the installed version from the candidates.
func installedChoices(participants []*participant) ([]int, bool) {
	out := make([]int, len(participants))

	for i, p := range participants {
		found := false

		for c, rel := range p.candidates {
			if rel.Version == p.entry.Version {
				out[i], found = c, true

				break
			}
		}

		if !found {
			return nil, false
		}
	}

	return out, true
}

func restore(participants []*participant, choice []int) {
	for i, p := range participants {
		p.choice = choice[i]
	}
}
