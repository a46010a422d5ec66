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

package sample

import (
	"testing"

	"pgregory.net/rapid"
)

var defaultRereads = Rereads{Abs: 2, Mul: 2}

func TestObserve_EmptyToMaybeToLikely(t *testing.T) {
	var s Sample
	if s.Status != Empty {
		t.Fatalf("zero value should be Empty, got %v", s.Status)
	}

	if got := s.Observe(0xAAAABBBB, false, defaultRereads); got != Maybe {
		t.Fatalf("first clean read: want Maybe, got %v", got)
	}
	if got := s.Observe(0xAAAABBBB, false, defaultRereads); got != Likely {
		t.Fatalf("second matching clean read (abs=2): want Likely, got %v", got)
	}
}

func TestObserve_ErroredFromEmptyGoesBad(t *testing.T) {
	var s Sample
	if got := s.Observe(0xDEADBEEF, true, defaultRereads); got != Bad {
		t.Fatalf("errored read from Empty: want Bad, got %v", got)
	}
	if s.Value != 0xDEADBEEF {
		t.Fatalf("Bad sample should record the errored value, got %08x", s.Value)
	}
}

func TestObserve_ContradictorySwapScenario(t *testing.T) {
	// From spec §8 scenario 3: pass1 clean A, pass2 clean B, pass3 clean A.
	// With rereads=2,2, after pass3 primary=A counter=2, secondary=B
	// counter=1, and 2 >= 2*1 so status is Likely.
	var s Sample
	const a, b = 0xAAAABBBB, 0x12345678

	s.Observe(a, false, defaultRereads)
	s.Observe(b, false, defaultRereads)
	got := s.Observe(a, false, defaultRereads)

	if got != Likely {
		t.Fatalf("want Likely after third observation, got %v (value=%08x counter=%d)", got, s.Value, s.Counter)
	}
	if s.Value != a || s.Counter != 2 {
		t.Fatalf("want primary=%08x counter=2, got %08x counter=%d", a, s.Value, s.Counter)
	}
}

func TestObserve_LikelyNeverDemotedByContradiction(t *testing.T) {
	var s Sample
	s.Observe(1, false, defaultRereads)
	s.Observe(1, false, defaultRereads) // now Likely

	if s.Status != Likely {
		t.Fatalf("setup failed: want Likely, got %v", s.Status)
	}

	got := s.Observe(2, false, defaultRereads)
	if got != Likely {
		t.Fatalf("a contradiction must not demote Likely, got %v", got)
	}
	if s.Value != 1 {
		t.Fatalf("primary value must not change on a non-dominant contradiction, got %08x", s.Value)
	}
}

func TestObserve_ErroredLeavesMaybeValueAlone(t *testing.T) {
	var s Sample
	s.Observe(7, false, defaultRereads)
	if s.Status != Maybe {
		t.Fatalf("setup: want Maybe, got %v", s.Status)
	}

	got := s.Observe(0, true, defaultRereads)
	if got != Maybe {
		t.Fatalf("errored observation on Maybe must not change status, got %v", got)
	}
	if s.Value != 7 || s.Counter != 1 {
		t.Fatalf("errored observation on Maybe must not touch value/counter, got value=%d counter=%d", s.Value, s.Counter)
	}
}

func TestResetSoft(t *testing.T) {
	var s Sample
	s.Observe(9, false, defaultRereads)
	s.Observe(9, false, defaultRereads)
	if s.Status != Likely {
		t.Fatalf("setup: want Likely, got %v", s.Status)
	}

	s.ResetSoft()
	if s.Status != Maybe || s.Value != 9 || s.Counter != 1 {
		t.Fatalf("ResetSoft should preserve value, reset counter to 1, demote to Maybe; got %+v", s)
	}

	// ResetSoft on Bad is a no-op.
	var bad Sample
	bad.Observe(1, true, defaultRereads)
	bad.ResetSoft()
	if bad.Status != Bad {
		t.Fatalf("ResetSoft must not touch Bad samples, got %v", bad.Status)
	}
}

func TestSecondaryTableExhaustionPinsBad(t *testing.T) {
	var s Sample
	s.Observe(1, false, defaultRereads) // primary=1, Maybe
	// feed MaxSecondary distinct contradicting values that never dominate
	for i := uint32(0); i < MaxSecondary; i++ {
		s.Observe(100+i, false, defaultRereads)
	}
	// one more distinct contradicting value overflows the table
	got := s.Observe(999, false, defaultRereads)
	if got != Bad {
		t.Fatalf("overflowing the secondary table should pin the sample to Bad, got %v", got)
	}
}

// TestObserveMonotoneUnderRapid checks spec §8's universal invariant: for
// any sequence of observations (without ResetSoft/ResetHard), status is
// monotone non-decreasing.
func TestObserveMonotoneUnderRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var s Sample
		r := Rereads{
			Abs: uint8(rapid.IntRange(1, 8).Draw(t, "abs")),
			Mul: uint8(rapid.IntRange(1, 8).Draw(t, "mul")),
		}
		n := rapid.IntRange(0, 40).Draw(t, "n")
		prev := s.Status
		for i := 0; i < n; i++ {
			value := rapid.Uint32().Draw(t, "value")
			errored := rapid.Bool().Draw(t, "errored")
			got := s.Observe(value, errored, r)
			if got < prev {
				t.Fatalf("status regressed from %v to %v without a reset", prev, got)
			}
			prev = got
		}
	})
}

// TestObserveDeterministic checks that replaying the same observation
// history twice yields identical final states (idempotence of the model
// itself, a prerequisite for the persist/open round-trip property in
// trackbuf).
func TestObserveDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := Rereads{Abs: 2, Mul: 2}
		n := rapid.IntRange(0, 20).Draw(t, "n")
		values := make([]uint32, n)
		erroreds := make([]bool, n)
		for i := range values {
			values[i] = rapid.Uint32Range(0, 3).Draw(t, "value") // small domain to force contradictions
			erroreds[i] = rapid.Bool().Draw(t, "errored")
		}

		var a, b Sample
		for i := range values {
			a.Observe(values[i], erroreds[i], r)
		}
		for i := range values {
			b.Observe(values[i], erroreds[i], r)
		}
		if a.Value != b.Value || a.Counter != b.Counter || a.Status != b.Status {
			t.Fatalf("replaying identical history diverged: %+v vs %+v", a, b)
		}
		sa, sb := a.SecondaryValues(), b.SecondaryValues()
		if len(sa) != len(sb) {
			t.Fatalf("secondary table diverged: %v vs %v", sa, sb)
		}
		for k, v := range sa {
			if sb[k] != v {
				t.Fatalf("secondary table diverged: %v vs %v", sa, sb)
			}
		}
	})
}
