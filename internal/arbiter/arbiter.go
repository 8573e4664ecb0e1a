// Copyright 2024 The go-rulectl Authors
// This file is part of go-rulectl.
//
// go-rulectl is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-rulectl is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-rulectl. If not, see <http://www.gnu.org/licenses/>.

// Package arbiter implements priority-based action conflict resolution
// (C7): at most one candidate action survives per target link each
// step.
package arbiter

import (
	"github.com/google/uuid"
	"github.com/probechain/go-rulectl/internal/rules"
)

// Candidate is one proposed action for a link, submitted by a firing
// rule's THEN or ELSE branch.
type Candidate struct {
	LinkIndex int
	RuleIndex int
	Priority  float64
	Value     float64
	Attribute rules.ActionAttr
	EventID   uuid.UUID
}

// Arbiter collects one step's candidate actions and resolves conflicts:
// when two rules target the same link, the strictly-higher-priority
// candidate wins; ties keep whichever was submitted first.
type Arbiter struct {
	byLink map[int]Candidate
}

// New returns an empty arbiter.
func New() *Arbiter {
	a := &Arbiter{}
	a.Reset()
	return a
}

// Reset clears all candidates, starting a fresh step.
func (a *Arbiter) Reset() {
	a.byLink = make(map[int]Candidate)
}

// Submit offers a candidate action. A losing submission is silently
// discarded; the caller does not need its outcome. Strict-greater
// priority replaces the incumbent; an equal or lower priority leaves
// whichever candidate is already recorded for this link untouched, so
// the earliest submission among ties is the one that stands.
func (a *Arbiter) Submit(c Candidate) {
	existing, ok := a.byLink[c.LinkIndex]
	if !ok || c.Priority > existing.Priority {
		c.EventID = uuid.New()
		a.byLink[c.LinkIndex] = c
	}
}

// Candidates returns the surviving candidates, unordered, one per link.
func (a *Arbiter) Candidates() []Candidate {
	out := make([]Candidate, 0, len(a.byLink))
	for _, c := range a.byLink {
		out = append(out, c)
	}
	return out
}
