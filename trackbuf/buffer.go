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

// Package trackbuf implements the per-track persistent state: one sample
// slot per stereo frame covering a track's offset-adjusted sector range,
// a per-sector C2 error summary, per-sector subchannel-sync flags, and a
// header recording the identity (drive offset, LBA range) the buffer was
// opened against (spec §4.2).
package trackbuf

import (
	"fmt"

	"github.com/riprip/riprip/sample"
)

// Policy configures how a buffer's samples are promoted and how reads are
// classified, mirroring the controller's rip options.
type Policy struct {
	Rereads   sample.Rereads
	StrictC2  bool // treat any C2 bit set anywhere in the sector as erroring every sample in it
	C2Enabled bool // false means --no-c2: every read is treated as clean
}

// Buffer is one track's in-memory working state, backed by a file on disk.
// It is not safe for concurrent use; the controller is single-threaded
// per spec §5.2.
type Buffer struct {
	path    string
	header  Header
	records []sample.Sample
	// c2Count[i] is the number of samples in sector i whose most recent
	// observation carried a C2 flag, capped at 255.
	c2Count []uint8
	// syncOK[i] is whether sector i's subchannel was read in sync on its
	// most recent read.
	syncOK []bool
	dirty  bool
}

// New creates a fresh, all-Empty buffer for the given track identity. The
// caller persists it before it exists on disk.
func New(path string, driveOffset, firstLBA, lastLBA int64, policy Policy, codecTag uint8) *Buffer {
	h := Header{
		DriveOffset: driveOffset,
		FirstLBA:    firstLBA,
		LastLBA:     lastLBA,
		Rereads:     policy.Rereads,
		StrictC2:    policy.StrictC2,
		C2Enabled:   policy.C2Enabled,
		Codec:       codecTag,
	}
	n := h.sectorCount()
	return &Buffer{
		path:    path,
		header:  h,
		records: make([]sample.Sample, h.sampleCount()),
		c2Count: make([]uint8, n),
		syncOK:  make([]bool, n),
		dirty:   true,
	}
}

// Header returns the buffer's current persistent metadata.
func (b *Buffer) Header() Header { return b.header }

// FirstLBA and LastLBA are the buffer's identity, as opened.
func (b *Buffer) FirstLBA() int64 { return b.header.FirstLBA }
func (b *Buffer) LastLBA() int64  { return b.header.LastLBA }

func (b *Buffer) sectorIndex(lba int64) (int, error) {
	if lba < b.header.FirstLBA || lba > b.header.LastLBA {
		return 0, fmt.Errorf("trackbuf: lba %d out of range [%d,%d]", lba, b.header.FirstLBA, b.header.LastLBA)
	}
	return int(lba - b.header.FirstLBA), nil
}

// WriteSample folds one drive observation into the sample slot at absolute
// sample index sampleIdx (0-based from the start of the buffer's sector
// range, i.e. offsetmap.Mapper.FromDisc's driveSample space minus
// FirstLBA*588).
func (b *Buffer) WriteSample(sampleIdx int64, value uint32, errored bool) (sample.Status, error) {
	if sampleIdx < 0 || sampleIdx >= int64(len(b.records)) {
		return 0, fmt.Errorf("trackbuf: sample index %d out of range [0,%d)", sampleIdx, len(b.records))
	}
	status := b.records[sampleIdx].Observe(value, errored, b.header.Rereads)
	b.dirty = true
	return status, nil
}

// WriteSectorC2Summary records how many of a sector's samples carried a C2
// flag on its most recent read. erroredSamples is that count, as the
// ingester derived it from the sector's C2 pointer block; values above
// 255 are stored as 255.
func (b *Buffer) WriteSectorC2Summary(lba int64, erroredSamples int) error {
	idx, err := b.sectorIndex(lba)
	if err != nil {
		return err
	}
	if erroredSamples > 255 {
		erroredSamples = 255
	}
	b.c2Count[idx] = uint8(erroredSamples)
	b.dirty = true
	return nil
}

// SyncSubchannel records whether sector lba's Q-subchannel was read in
// sync on its most recent read.
func (b *Buffer) SyncSubchannel(lba int64, ok bool) error {
	idx, err := b.sectorIndex(lba)
	if err != nil {
		return err
	}
	b.syncOK[idx] = ok
	b.dirty = true
	return nil
}

// BestPCM returns the best-known stereo sample value for each slot in
// [firstSample, lastSample), or 0 for Empty/Bad slots unless
// fallbackToLastBad is set, in which case a Bad slot returns its last
// recorded (untrusted) value instead of silence, trading correctness for
// audible continuity.
func (b *Buffer) BestPCM(firstSample, lastSample int64, fallbackToLastBad bool) ([]uint32, error) {
	if firstSample < 0 || lastSample > int64(len(b.records)) || firstSample > lastSample {
		return nil, fmt.Errorf("trackbuf: sample range [%d,%d) out of bounds", firstSample, lastSample)
	}
	out := make([]uint32, lastSample-firstSample)
	for i := range out {
		s := b.records[firstSample+int64(i)]
		switch s.Status {
		case sample.Empty:
			out[i] = 0
		case sample.Bad:
			if fallbackToLastBad {
				out[i] = s.Value
			} else {
				out[i] = 0
			}
		default:
			out[i] = s.Value
		}
	}
	return out, nil
}

// Stats summarizes the buffer's sample statuses, for progress reporting
// and the controller's check that a track is fully read before it is
// verified.
type Stats struct {
	Empty, Bad, Maybe, Likely int
}

// Stats returns the current per-status sample counts.
func (b *Buffer) Stats() Stats {
	var s Stats
	for i := range b.records {
		switch b.records[i].Status {
		case sample.Empty:
			s.Empty++
		case sample.Bad:
			s.Bad++
		case sample.Maybe:
			s.Maybe++
		case sample.Likely:
			s.Likely++
		}
	}
	return s
}

// SectorCount returns how many sectors the buffer's LBA range spans.
func (b *Buffer) SectorCount() int64 { return b.header.sectorCount() }

// SectorNeedsRead implements spec §4.5's exact per-sector scheduling
// predicate: a sector needs a (re-)read if any sample it holds is
// Empty/Bad, is Maybe, is Likely but hasn't reached cutoff agreements
// yet, or if requireSync is set and the sector's last subchannel read
// wasn't in sync.
func (b *Buffer) SectorNeedsRead(lba int64, cutoff uint8, requireSync bool) (bool, error) {
	idx, err := b.sectorIndex(lba)
	if err != nil {
		return false, err
	}
	if requireSync && !b.syncOK[idx] {
		return true, nil
	}
	lo := idx * samplesPerSector
	hi := lo + samplesPerSector
	for _, s := range b.records[lo:hi] {
		switch s.Status {
		case sample.Empty, sample.Bad, sample.Maybe:
			return true, nil
		case sample.Likely:
			if s.Counter < cutoff {
				return true, nil
			}
		}
	}
	return false, nil
}

// Direction controls the sector-scan order iterSectorsRequiringRead walks
// in, per spec §6.2's --direction flag.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

// IterSectorsRequiringRead yields, in the requested direction, every
// sector LBA that still has at least one non-Likely sample, i.e. every
// sector a pass actually needs to re-read.
func (b *Buffer) IterSectorsRequiringRead(dir Direction) []int64 {
	n := int(b.header.sectorCount())
	var needed []bool
	needed = make([]bool, n)
	for sec := 0; sec < n; sec++ {
		lo := sec * samplesPerSector
		hi := lo + samplesPerSector
		for _, s := range b.records[lo:hi] {
			if s.Status != sample.Likely {
				needed[sec] = true
				break
			}
		}
	}

	var order []int
	switch dir {
	case Reverse:
		for i := n - 1; i >= 0; i-- {
			order = append(order, i)
		}
	default:
		for i := 0; i < n; i++ {
			order = append(order, i)
		}
	}

	out := make([]int64, 0, n)
	for _, sec := range order {
		if needed[sec] {
			out = append(out, b.header.FirstLBA+int64(sec))
		}
	}
	return out
}

// ResetSoft implements --reset across every sample slot: Likely demotes to
// Maybe, values are preserved, and the pass counter restarts at 0. The
// track's Confirmed flag is kept.
func (b *Buffer) ResetSoft() {
	for i := range b.records {
		b.records[i].ResetSoft()
	}
	b.header.PassCounter = 0
	b.dirty = true
}

// MarkConfirmed records that the track passed external verification; the
// scheduler treats a Confirmed track as needing no further sectors.
func (b *Buffer) MarkConfirmed(arChecksum, ctdbChecksum uint32) {
	b.header.Confirmed = true
	b.header.LastARChecksum = arChecksum
	b.header.LastCTDBChecksum = ctdbChecksum
	b.dirty = true
}

// IncrementPass bumps the header's pass counter after a completed pass.
func (b *Buffer) IncrementPass() {
	b.header.PassCounter++
	b.dirty = true
}

// Dirty reports whether the buffer has unpersisted mutations.
func (b *Buffer) Dirty() bool { return b.dirty }
