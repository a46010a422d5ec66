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

package verify

import "testing"

func TestCompute_SmallKnownVector(t *testing.T) {
	samples := []uint32{1, 2, 3}
	cs := Compute(samples, false, false, 0)
	wantV1 := uint32(1*1 + 2*2 + 3*3)
	if cs.AccurateRipV1 != wantV1 {
		t.Fatalf("v1: got %d want %d", cs.AccurateRipV1, wantV1)
	}
	wantV2 := uint32(1*1 + 2*2 + 3*3) // fits in 32 bits, high half is 0
	if cs.AccurateRipV2 != wantV2 {
		t.Fatalf("v2: got %d want %d", cs.AccurateRipV2, wantV2)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	samples := make([]uint32, 2000)
	for i := range samples {
		samples[i] = uint32(i*7919 + 13)
	}
	a := Compute(samples, true, true, 0)
	b := Compute(samples, true, true, 0)
	if a != b {
		t.Fatalf("checksum computation is not deterministic: %+v vs %+v", a, b)
	}
}

func TestCompute_BoundaryTrimmingChangesResult(t *testing.T) {
	samples := make([]uint32, 10*588)
	for i := range samples {
		samples[i] = uint32(i + 1)
	}
	untrimmed := Compute(samples, false, false, 0)
	trimmedFirst := Compute(samples, true, false, 0)
	trimmedLast := Compute(samples, false, true, 0)
	if untrimmed == trimmedFirst {
		t.Fatal("trimming track-1 boundary should change the checksum")
	}
	if untrimmed == trimmedLast {
		t.Fatal("trimming last-track boundary should change the checksum")
	}
}

func TestCompute_AbsoluteOffsetShiftsWeights(t *testing.T) {
	samples := []uint32{1, 2, 3}
	a := Compute(samples, false, false, 0)
	b := Compute(samples, false, false, 1000)
	if a.AccurateRipV1 == b.AccurateRipV1 {
		t.Fatal("a nonzero absolute sample offset should change v1's weighted sum")
	}
}

func TestSkipRange_ShortTrackNeverGoesNegative(t *testing.T) {
	lo, hi := skipRange(100, true, true)
	if lo < 0 || hi > 100 || lo > hi {
		t.Fatalf("skipRange produced invalid bounds [%d,%d) for a short track", lo, hi)
	}
}

func TestCTDBCrc32_DiffersOnSingleSampleChange(t *testing.T) {
	a := []uint32{1, 2, 3, 4}
	b := []uint32{1, 2, 3, 5}
	if ctdbCrc32(a) == ctdbCrc32(b) {
		t.Fatal("crc32 should differ when a sample changes")
	}
}
