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

// MatchResult reports whether a track's computed checksums matched a
// reference entry with sufficient confidence to be Confirmed.
type MatchResult struct {
	Matched    bool
	Confidence int
	Source     string // "accuraterip" or "ctdb"
	Revision   int    // index into the matching source's submission/entry list
}

// Evaluate checks computed against every submission in a Bundle and
// returns the highest-confidence match reaching at least minConfidence.
// trackIndex is 0-based within the disc; AccurateRip submissions and CTDB
// entries both index tracks by that same position.
func Evaluate(computed Checksums, b *Bundle, trackIndex, minConfidence int) MatchResult {
	best := MatchResult{}

	for i, sub := range b.AR {
		if trackIndex >= len(sub.Tracks) {
			continue
		}
		entry := sub.Tracks[trackIndex]
		if entry.CRC32V1 != computed.AccurateRipV1 && entry.CRC32V2 != computed.AccurateRipV2 {
			continue
		}
		if int(entry.Confidence) > best.Confidence {
			best = MatchResult{Matched: true, Confidence: int(entry.Confidence), Source: "accuraterip", Revision: i}
		}
	}

	for i, entry := range b.CTDB {
		crc, ok := entry.TrackCRC32[trackIndex+1] // CTDB track numbers are 1-based
		if !ok || crc != computed.CTDBCrc32 {
			continue
		}
		if entry.Confidence > best.Confidence {
			best = MatchResult{Matched: true, Confidence: entry.Confidence, Source: "ctdb", Revision: i}
		}
	}

	if best.Confidence < minConfidence {
		return MatchResult{}
	}
	return best
}
