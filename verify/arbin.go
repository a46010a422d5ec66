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

import (
	"encoding/binary"
	"fmt"
	"io"
)

// arSubmissionHeaderSize is the 13-byte disc identity header preceding each
// submission's per-track entries in an AccurateRip .bin payload.
const arSubmissionHeaderSize = 13

// arTrackEntrySize is one track's (confidence, v1 crc, v2 crc) record.
// Real AccurateRip bins only ever carried the v1 checksum; the v2 field was
// added later as a second parallel bin. We assume a combined 9-byte layout
// here so one parser handles both, which a vendor response may not
// actually match byte-for-byte — isolated in this one function so it is a
// one-place fix if real bins disagree.
const arTrackEntrySize = 9

// ARSubmission is one pressing's worth of per-track reference checksums,
// as submitted to the AccurateRip database.
type ARSubmission struct {
	DiscID1, DiscID2, CDDBID uint32
	Tracks                   []ARTrackEntry
}

// ARTrackEntry is one track's confidence and checksum pair within a
// submission.
type ARTrackEntry struct {
	Confidence uint8
	CRC32V1    uint32
	CRC32V2    uint32
}

// ParseARBin decodes an AccurateRip .bin payload into its constituent
// submissions. A disc may have been submitted multiple times (different
// pressings, different rip offsets), so the bin is a sequence of
// (header, tracks...) blocks until EOF.
func ParseARBin(data []byte) ([]ARSubmission, error) {
	var out []ARSubmission
	off := 0
	for off < len(data) {
		if off+arSubmissionHeaderSize > len(data) {
			return nil, fmt.Errorf("verify: truncated AccurateRip submission header at offset %d", off)
		}
		trackCount := int(data[off])
		sub := ARSubmission{
			DiscID1: binary.LittleEndian.Uint32(data[off+1:]),
			DiscID2: binary.LittleEndian.Uint32(data[off+5:]),
			CDDBID:  binary.LittleEndian.Uint32(data[off+9:]),
		}
		off += arSubmissionHeaderSize

		need := trackCount * arTrackEntrySize
		if off+need > len(data) {
			return nil, fmt.Errorf("verify: truncated AccurateRip track entries at offset %d: %w", off, io.ErrUnexpectedEOF)
		}
		sub.Tracks = make([]ARTrackEntry, trackCount)
		for i := 0; i < trackCount; i++ {
			entry := data[off:]
			sub.Tracks[i] = ARTrackEntry{
				Confidence: entry[0],
				CRC32V1:    binary.LittleEndian.Uint32(entry[1:]),
				CRC32V2:    binary.LittleEndian.Uint32(entry[5:]),
			}
			off += arTrackEntrySize
		}
		out = append(out, sub)
	}
	return out, nil
}
