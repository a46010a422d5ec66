// Copyright (c) 2026 The Rip Rip Hooray! Project.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of riprip.
//
// riprip is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// riprip is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with riprip.  If not, see <https://www.gnu.org/licenses/>.

// Package sample implements the per-sample provenance state machine: the
// status and observation history of a single stereo 16-bit audio frame as
// it is read and re-read across ripping passes.
package sample

import "fmt"

// Status is a total order of increasing trust in a sample's current value.
type Status uint8

const (
	// Empty means the sample has never been read; its value is 0.
	Empty Status = iota
	// Bad means at least one read produced this sample with a C2 error
	// flagged, or the containing sector read was malformed.
	Bad
	// Maybe means the sample was read clean but not yet cross-confirmed.
	Maybe
	// Likely means the same value has been observed clean enough times,
	// relative to any contradicting value, to be trusted.
	Likely
	// Confirmed is a whole-track attribute (see the rip package); it never
	// appears as the result of Observe on an individual sample.
	Confirmed
)

func (s Status) String() string {
	switch s {
	case Empty:
		return "empty"
	case Bad:
		return "bad"
	case Maybe:
		return "maybe"
	case Likely:
		return "likely"
	case Confirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Rereads configures the Maybe->Likely promotion threshold: a sample is
// promoted once its agreement counter is at least Abs, and at least Mul
// times any contradicting value's counter.
type Rereads struct {
	Abs uint8
	Mul uint8
}

// MaxSecondary bounds how many distinct contradicting values a sample
// tracks before it is pinned to Bad (spec: "may be compact... if exceeded,
// the sample is pinned to Bad").
const MaxSecondary = 4

// secondaryEntry is one contradicting value and how many times it's been
// seen, in first-observed order (order is the tie-break for simultaneous
// promotion: earlier-observed wins).
type secondaryEntry struct {
	value   uint32
	counter uint8
}

// Sample is the mutable provenance record for one stereo sample position.
// The zero value is a valid Empty sample.
type Sample struct {
	Value     uint32
	Counter   uint8
	Status    Status
	secondary []secondaryEntry
}

func saturatingInc(c uint8) uint8 {
	if c == 255 {
		return 255
	}
	return c + 1
}

// Observe folds one drive observation into the sample's history and
// returns the resulting status. errored is true when the observation's
// byte range carried a C2 flag, or the containing sector read was flagged
// errored (full-sector strict mode, or a failed transport read).
//
// Observe is a pure function of (current state, value, errored, policy):
// identical histories replayed through Observe in order yield identical
// final states, which is what makes persist()+open() round-trips and
// resumed rips deterministic.
func (s *Sample) Observe(value uint32, errored bool, r Rereads) Status {
	if errored {
		s.observeErrored(value)
		return s.Status
	}
	s.observeClean(value, r)
	return s.Status
}

func (s *Sample) observeErrored(value uint32) {
	switch s.Status {
	case Empty:
		s.Value = value
		s.Status = Bad
	case Bad:
		// already bad; leave the recorded value alone
	case Maybe, Likely, Confirmed:
		// value and counter are untouched; the sector-level C2 summary in
		// the track buffer is what records that this read was errored, for
		// the scheduler's benefit
	}
}

func (s *Sample) observeClean(value uint32, r Rereads) {
	switch s.Status {
	case Empty, Bad:
		if s.Status == Bad && value == s.Value {
			// a bad sample's recorded value gets confirmed by a later
			// clean read for the same bytes; it still becomes a fresh
			// Maybe with the counter reset to 1, since a Bad sample's
			// counter was never meaningfully tracking agreements.
		}
		s.Value = value
		s.Counter = 1
		s.Status = Maybe
		s.secondary = nil
	case Maybe, Likely:
		if value == s.Value {
			s.Counter = saturatingInc(s.Counter)
			s.promoteIfReady(r)
			return
		}
		s.observeContradiction(value, r)
	case Confirmed:
		// verification never mutates per-sample state
	}
}

// promoteIfReady applies the Maybe->Likely threshold. It never demotes.
func (s *Sample) promoteIfReady(r Rereads) {
	if s.Status != Maybe {
		return
	}
	if s.Counter >= r.Abs && int(s.Counter) >= int(r.Mul)*int(s.maxSecondaryCounter()) {
		s.Status = Likely
	}
}

func (s *Sample) maxSecondaryCounter() uint8 {
	var m uint8
	for _, e := range s.secondary {
		if e.counter > m {
			m = e.counter
		}
	}
	return m
}

// observeContradiction folds a clean observation whose value differs from
// the current primary value into the secondary table, then checks whether
// the secondary value now dominates the primary strongly enough to swap.
// Per spec, a Likely sample is never demoted by a contradiction; only a
// promotion (of some value to Likely) can happen here.
func (s *Sample) observeContradiction(value uint32, r Rereads) {
	idx := -1
	for i := range s.secondary {
		if s.secondary[i].value == value {
			idx = i
			break
		}
	}
	switch {
	case idx >= 0:
		s.secondary[idx].counter = saturatingInc(s.secondary[idx].counter)
	case len(s.secondary) < MaxSecondary:
		s.secondary = append(s.secondary, secondaryEntry{value: value, counter: 1})
		idx = len(s.secondary) - 1
	default:
		// table exhausted: pin the whole sample to Bad rather than silently
		// dropping a contradicting observation
		s.Status = Bad
		s.secondary = nil
		return
	}

	if s.Status == Likely {
		// promotion only: a contradiction cannot unseat an already-Likely
		// primary value
		return
	}

	entry := s.secondary[idx]
	if int(entry.counter) >= int(r.Mul)*int(s.Counter) && entry.counter >= r.Abs {
		// the secondary value now dominates; swap it into the primary slot
		oldPrimary := secondaryEntry{value: s.Value, counter: s.Counter}
		s.Value = entry.value
		s.Counter = entry.counter
		s.secondary[idx] = oldPrimary
		s.promoteIfReady(r)
	}
}

// ResetSoft implements --reset: Likely demotes to Maybe, preserving the
// current value but restarting the agreement counter at 1 and clearing the
// secondary table. Bad and Confirmed samples are untouched (Confirmed is a
// whole-track attribute tracked outside Sample).
func (s *Sample) ResetSoft() {
	if s.Status != Likely {
		return
	}
	s.Status = Maybe
	s.Counter = 1
	s.secondary = nil
}

// ResetHard implements --no-resume: every sample reverts to Empty.
func (s *Sample) ResetHard() {
	*s = Sample{}
}

// SecondaryValues returns the contradicting values currently tracked, for
// diagnostics and tests, as a value-to-counter map. The returned map is a
// defensive copy.
func (s *Sample) SecondaryValues() map[uint32]uint8 {
	if len(s.secondary) == 0 {
		return nil
	}
	m := make(map[uint32]uint8, len(s.secondary))
	for _, e := range s.secondary {
		m[e.value] = e.counter
	}
	return m
}

// Restore rebuilds a Sample from its persisted fields exactly, without
// replaying Observe history. trackbuf uses this to satisfy the
// persist/open round-trip invariant: decoding a record must reproduce the
// slot that was encoded, not merely an equivalent one reached by a
// different observation order.
func Restore(value uint32, counter uint8, status Status, secondary map[uint32]uint8) Sample {
	s := Sample{Value: value, Counter: counter, Status: status}
	if len(secondary) > 0 {
		s.secondary = make([]secondaryEntry, 0, len(secondary))
		for v, c := range secondary {
			s.secondary = append(s.secondary, secondaryEntry{value: v, counter: c})
		}
	}
	return s
}
