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

package ingest

import (
	"testing"

	"github.com/riprip/riprip/offsetmap"
	"github.com/riprip/riprip/sample"
	"github.com/riprip/riprip/trackbuf"
)

func newTestTarget(t *testing.T, firstLBA, lastLBA int64) Target {
	t.Helper()
	b := trackbuf.New(t.TempDir()+"/t.riprip", 0, firstLBA, lastLBA,
		trackbuf.Policy{Rereads: sample.Rereads{Abs: 2, Mul: 2}, C2Enabled: true}, trackbuf.CodecNone)
	return Target{
		Buffer:        b,
		Mapper:        offsetmap.Mapper{Offset: 0},
		TrackFirstLBA: firstLBA,
		TrackSamples:  (lastLBA - firstLBA + 1) * 588,
	}
}

func TestIngest_CleanSectorNoErrors(t *testing.T) {
	target := newTestTarget(t, 10, 10)
	var sec Sector
	sec.LBA = 10
	sec.TransportOK = true
	for i := 0; i < 588; i++ {
		sec.PCM[i*4] = byte(i)
	}

	res, err := Ingest(sec, []Target{target}, Options{})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Discarded {
		t.Fatal("clean sector should not be discarded")
	}
	if res.SamplesWritten != 588 || res.ErroredSamples != 0 {
		t.Fatalf("want 588 clean samples, got %+v", res)
	}

	stats := target.Buffer.Stats()
	if stats.Maybe != 588 {
		t.Fatalf("want all 588 samples Maybe after one clean read, got %+v", stats)
	}
}

func TestIngest_TransportFailureMarksAllBad(t *testing.T) {
	target := newTestTarget(t, 5, 5)
	var sec Sector
	sec.LBA = 5
	sec.TransportOK = false

	res, err := Ingest(sec, []Target{target}, Options{})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.ErroredSamples != 588 {
		t.Fatalf("transport failure should error every sample, got %d", res.ErroredSamples)
	}
	stats := target.Buffer.Stats()
	if stats.Bad != 588 {
		t.Fatalf("want all samples Bad, got %+v", stats)
	}
}

func TestIngest_C2BitMarksOnlyAffectedSample(t *testing.T) {
	target := newTestTarget(t, 0, 0)
	var sec Sector
	sec.LBA = 0
	sec.TransportOK = true
	var c2 [C2Bytes]byte
	// Set bit 0 (covers sample 0) per the MSB-first bit order bitio reads.
	c2[0] = 0b1000_0000
	sec.C2 = &c2

	res, err := Ingest(sec, []Target{target}, Options{})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.ErroredSamples != 1 {
		t.Fatalf("want exactly 1 errored sample, got %d", res.ErroredSamples)
	}
	stats := target.Buffer.Stats()
	if stats.Bad != 1 || stats.Maybe != 587 {
		t.Fatalf("want 1 Bad + 587 Maybe, got %+v", stats)
	}
}

func TestIngest_StrictModePropagatesAnyC2ToWholeSector(t *testing.T) {
	target := newTestTarget(t, 0, 0)
	var sec Sector
	sec.LBA = 0
	sec.TransportOK = true
	var c2 [C2Bytes]byte
	c2[0] = 0b1000_0000
	sec.C2 = &c2

	res, err := Ingest(sec, []Target{target}, Options{Strict: true})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.ErroredSamples != 588 {
		t.Fatalf("strict mode should error the whole sector, got %d", res.ErroredSamples)
	}
}

func TestIngest_NoC2TreatsAllClean(t *testing.T) {
	target := newTestTarget(t, 0, 0)
	var sec Sector
	sec.LBA = 0
	sec.TransportOK = true
	sec.C2 = nil // --no-c2

	res, err := Ingest(sec, []Target{target}, Options{})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.ErroredSamples != 0 {
		t.Fatalf("--no-c2 should treat every sample as clean, got %d errored", res.ErroredSamples)
	}
}

func TestIngest_SyncFailureDiscardsSectorWithoutTouchingSamples(t *testing.T) {
	target := newTestTarget(t, 0, 0)
	var sec Sector
	sec.LBA = 0
	sec.TransportOK = true
	var q [12]byte
	sec.SubchannelQ = &q

	res, err := Ingest(sec, []Target{target}, Options{
		SyncCheck:      true,
		ExpectQMatches: func(q [12]byte, lba int64) bool { return false },
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !res.Discarded {
		t.Fatal("want sector discarded on sync mismatch")
	}
	stats := target.Buffer.Stats()
	if stats.Empty != 588 {
		t.Fatalf("discarded sector must not touch any sample, got %+v", stats)
	}
}

func TestIngest_SamplesOutsideTrackAreSkipped(t *testing.T) {
	// Track's nominal first LBA is 1, but a -30 sample offset pulls data
	// for its earliest samples from the tail of LBA 0 too; only that
	// tail portion of LBA 0 belongs to this track.
	b := trackbuf.New(tDir(t)+"/t.riprip", -30, 0, 1,
		trackbuf.Policy{Rereads: sample.Rereads{Abs: 2, Mul: 2}, C2Enabled: true}, trackbuf.CodecNone)
	target := Target{Buffer: b, Mapper: offsetmap.Mapper{Offset: -30}, TrackFirstLBA: 1, TrackSamples: 588}

	var sec Sector
	sec.LBA = 0
	sec.TransportOK = true

	res, err := Ingest(sec, []Target{target}, Options{})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.SamplesWritten == 0 || res.SamplesWritten >= 588 {
		t.Fatalf("want a partial write (some samples out of track range), got %d", res.SamplesWritten)
	}
}

func tDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}
