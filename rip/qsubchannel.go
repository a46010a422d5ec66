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

package rip

// qSyncToleranceSectors is how far the Q-subchannel's self-reported
// absolute position may differ from the LBA we asked the drive to read
// and still be accepted as "in sync" (SPEC_FULL Open Question decision).
const qSyncToleranceSectors = 1

// bcdToDecimal decodes one byte of packed binary-coded decimal, as used
// throughout the Q-subchannel's MSF fields.
func bcdToDecimal(b byte) int {
	return int(b>>4)*10 + int(b&0x0f)
}

// decodeQAbsoluteLBA extracts the absolute-time MSF field from a 12-byte
// Q-subchannel block (spec §6.4: "standard MSF+track+index packed
// frame") and converts it to an LBA using the standard Red Book formula.
// Byte layout: [0] control/ADR, [1] track (BCD), [2] index (BCD),
// [3:6] relative M:S:F (BCD), [6] zero, [7:10] absolute M:S:F (BCD),
// [10:12] CRC.
func decodeQAbsoluteLBA(q [12]byte) int64 {
	m := bcdToDecimal(q[7])
	s := bcdToDecimal(q[8])
	f := bcdToDecimal(q[9])
	return int64(m*60*75+s*75+f) - 150
}

// expectQMatches is the ingest.Options.ExpectQMatches predicate: the
// sector is considered in sync if its Q-subchannel's absolute position is
// within qSyncToleranceSectors of the LBA the drive was asked to read.
func expectQMatches(q [12]byte, lba int64) bool {
	got := decodeQAbsoluteLBA(q)
	delta := got - lba
	if delta < 0 {
		delta = -delta
	}
	return delta <= qSyncToleranceSectors
}
