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

// Package ingest fuses one raw drive sector response (audio, C2 error
// pointers, Q-subchannel position, transport status) into sample-level
// observations across whatever track buffers the sector overlaps (spec
// §4.4).
package ingest

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"
	"github.com/riprip/riprip/offsetmap"
	"github.com/riprip/riprip/trackbuf"
)

// SectorBytes is the raw payload size of one CD-DA sector (588 stereo
// 16-bit samples).
const SectorBytes = 2352

// C2Bytes is the size of the C2 error-pointer bitmap accompanying a
// sector, one bit per payload byte.
const C2Bytes = 294

// Sector is one raw drive response for a single LBA.
type Sector struct {
	LBA int64
	PCM [SectorBytes]byte
	// C2 is the 294-byte error-pointer bitmap, or nil when --no-c2 is in
	// effect or the drive didn't return one.
	C2 *[C2Bytes]byte
	// SubchannelQ is the raw 12-byte Q-subchannel block, or nil if the
	// drive didn't return one / --no-sync is in effect.
	SubchannelQ *[12]byte
	// TransportOK is false when the drive itself flagged the read as
	// failed (timeout, SCSI check condition, etc), independent of C2.
	TransportOK bool
}

// Target is one track buffer this sector's samples may land in, together
// with the offset mapper that locates them.
type Target struct {
	Buffer *trackbuf.Buffer
	Mapper offsetmap.Mapper
	// TrackFirstLBA is the track's own nominal first LBA (the disc TOC
	// boundary, before the read offset grew Buffer's own LBA range to
	// cover it) — the zero point of this track's sample numbering.
	TrackFirstLBA int64
	// TrackSamples is the track's own sample count, used to discard
	// samples that spilled into this buffer's sector range but belong to
	// a neighboring track (spec §4.3).
	TrackSamples int64
}

// Options configures how a sector's C2 data is interpreted.
type Options struct {
	// Strict means any C2 bit set anywhere in the sector marks every
	// sample in the sector errored, rather than just the samples whose
	// own bits are set.
	Strict bool
	// SyncCheck enables Q-subchannel sync verification; when it fails,
	// the whole sector is discarded without touching any sample.
	SyncCheck bool
	// ExpectedLBA->bool, used to validate the Q-subchannel's encoded
	// position against where the drive claims to have read from.
	ExpectQMatches func(q [12]byte, lba int64) bool
}

// Result summarizes what Ingest did, for progress reporting.
type Result struct {
	// Discarded is true if the sector was dropped wholesale due to a
	// subchannel sync failure.
	Discarded bool
	// SamplesWritten counts how many (target, sample) pairs were
	// observed, across every target buffer the sector's samples reached.
	SamplesWritten int
	// ErroredSamples counts how many of those were errored (C2 or
	// transport failure).
	ErroredSamples int
}

// Ingest applies one sector response to every target buffer whose sector
// range it overlaps.
func Ingest(sec Sector, targets []Target, opt Options) (Result, error) {
	var res Result

	if opt.SyncCheck && sec.SubchannelQ != nil {
		if opt.ExpectQMatches == nil {
			return res, fmt.Errorf("ingest: SyncCheck enabled without ExpectQMatches")
		}
		ok := opt.ExpectQMatches(*sec.SubchannelQ, sec.LBA)
		for _, t := range targets {
			_ = t.Buffer.SyncSubchannel(sec.LBA, ok)
		}
		if !ok {
			res.Discarded = true
			return res, nil
		}
	}

	erroredPerSample, sectorErrored, err := classifyC2(sec, opt)
	if err != nil {
		return res, err
	}

	var c2Count int
	for _, e := range erroredPerSample {
		if e {
			c2Count++
		}
	}
	for _, t := range targets {
		_ = t.Buffer.WriteSectorC2Summary(sec.LBA, c2Count)
	}

	for _, t := range targets {
		// bufferSample indexes the buffer's own record array, laid out in
		// disc-sector space starting at the buffer's FirstLBA (see
		// trackbuf.Buffer.WriteSample). trackRelative is the offset-
		// corrected position within the track's own 0-based sample
		// numbering, used only to decide whether this disc sample
		// actually belongs to the track the mapper was built for (spec
		// §4.3's "samples falling outside the track proper").
		for i := 0; i < 588; i++ {
			correctedAbs := t.Mapper.FromDisc(sec.LBA, i)
			trackRelative := correctedAbs - t.TrackFirstLBA*offsetmap.SamplesPerSector
			if !offsetmap.InTrack(trackRelative, t.TrackSamples) {
				continue
			}
			bufferSample := (sec.LBA-t.Buffer.FirstLBA())*588 + int64(i)
			value := sampleValue(sec.PCM, i)
			errored := sectorErrored || erroredPerSample[i]
			if _, err := t.Buffer.WriteSample(bufferSample, value, errored); err != nil {
				return res, fmt.Errorf("ingest: write sample %d: %w", bufferSample, err)
			}
			res.SamplesWritten++
			if errored {
				res.ErroredSamples++
			}
		}
	}

	return res, nil
}

// sampleValue packs the 4 PCM bytes (left+right 16-bit little-endian) for
// sample index i into one uint32, matching the layout sample.Sample
// stores and compares.
func sampleValue(pcm [SectorBytes]byte, i int) uint32 {
	off := i * 4
	return uint32(pcm[off]) | uint32(pcm[off+1])<<8 | uint32(pcm[off+2])<<16 | uint32(pcm[off+3])<<24
}

// classifyC2 returns, per sample, whether it's errored, and whether the
// whole sector is errored (transport failure, or --strict with any C2 bit
// set).
func classifyC2(sec Sector, opt Options) (perSample [588]bool, sectorErrored bool, err error) {
	if !sec.TransportOK {
		for i := range perSample {
			perSample[i] = true
		}
		return perSample, true, nil
	}
	if sec.C2 == nil {
		return perSample, false, nil
	}

	r := bitio.NewReader(bytes.NewReader(sec.C2[:]))
	var anySet bool
	for i := 0; i < 588; i++ {
		b0, e := r.ReadBool()
		if e != nil {
			return perSample, false, fmt.Errorf("ingest: read c2 bit %d: %w", i*2, e)
		}
		b1, e := r.ReadBool()
		if e != nil {
			return perSample, false, fmt.Errorf("ingest: read c2 bit %d: %w", i*2+1, e)
		}
		if b0 || b1 {
			perSample[i] = true
			anySet = true
		}
	}

	if opt.Strict && anySet {
		for i := range perSample {
			perSample[i] = true
		}
		return perSample, true, nil
	}
	return perSample, false, nil
}
