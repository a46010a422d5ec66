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

// Package discid computes the disc identifier strings a TOC implementation
// hands back through riprip.TOC.DiscIDs: the two-part AccurateRip ID plus
// CDDB disc ID used as its third field, and the freedb/CDDB disc ID reused
// as a stand-in CTDB key (spec §6.1's "disc-ID strings").
package discid

// Track is the minimal per-track geometry this package needs: its
// absolute starting sector (LBA + 150, i.e. the MSF-addressable position
// including the 2-second lead-in every Red Book disc reserves).
type Track struct {
	StartSector int64
}

// AccurateRip computes the three values every AccurateRip-compatible
// client folds into its lookup URL and its submission disc ID: a sum of
// track offsets, a position-weighted sum of the same, and the CDDB disc
// ID. leadoutSector is the absolute starting sector of the lead-out (one
// past the last audio sector), which this algorithm treats as track
// n+1's own "offset" the same way real AccurateRip clients do.
func AccurateRip(tracks []Track, leadoutSector int64) (id1, id2, cddbID uint32) {
	n := len(tracks)
	for i, t := range tracks {
		off := uint32(t.StartSector) //nolint:gosec // sector positions fit comfortably in uint32
		id1 += off
		id2 += off * uint32(i+1)
	}
	leadoutOff := uint32(leadoutSector) //nolint:gosec // sector positions fit comfortably in uint32
	id1 += leadoutOff
	id2 += leadoutOff * uint32(n+1)
	return id1, id2, CDDB(tracks, leadoutSector)
}

// CDDB computes the classic freedb/CDDB disc ID: a checksum of each
// track's start time in seconds, the total playing time in seconds, and
// the track count, packed into one 32-bit value.
func CDDB(tracks []Track, leadoutSector int64) uint32 {
	if len(tracks) == 0 {
		return 0
	}
	var checksum int
	for _, t := range tracks {
		checksum += cddbDigitSum(int(t.StartSector) / 75)
	}
	firstSeconds := int(tracks[0].StartSector) / 75
	totalSeconds := int(leadoutSector)/75 - firstSeconds
	return uint32(checksum%0xff)<<24 | uint32(totalSeconds)<<8 | uint32(len(tracks)) //nolint:gosec // packed per the CDDB spec's own field widths
}

// cddbDigitSum sums the decimal digits of n, the building block of the
// CDDB checksum (e.g. 1997 -> 1+9+9+7 -> 26).
func cddbDigitSum(n int) int {
	sum := 0
	for n > 0 {
		sum += n % 10
		n /= 10
	}
	return sum
}
