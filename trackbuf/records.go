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

package trackbuf

import (
	"encoding/binary"

	"github.com/riprip/riprip/sample"
)

// samplesPerSector is one CD sector's worth of stereo samples (2352/4).
const samplesPerSector = 588

// secondarySlotSize is one secondary-table entry on disk: a contradicting
// value plus its agreement counter.
const secondarySlotSize = 5 // uint32 value + uint8 counter

// recordSize is the on-disk footprint of one sample slot: primary value,
// primary counter, status, a count of populated secondary slots, one
// padding byte, then MaxSecondary fixed secondary slots.
const recordSize = 4 + 1 + 1 + 1 + 1 + sample.MaxSecondary*secondarySlotSize

func encodeRecord(buf []byte, s sample.Sample) {
	binary.LittleEndian.PutUint32(buf[0:4], s.Value)
	buf[4] = s.Counter
	buf[5] = uint8(s.Status)
	secondary := s.SecondaryValues()
	buf[6] = uint8(len(secondary))
	buf[7] = 0
	off := 8
	i := 0
	for value, counter := range secondary {
		binary.LittleEndian.PutUint32(buf[off:off+4], value)
		buf[off+4] = counter
		off += secondarySlotSize
		i++
		if i >= sample.MaxSecondary {
			break
		}
	}
	for ; i < sample.MaxSecondary; i++ {
		binary.LittleEndian.PutUint32(buf[off:off+4], 0)
		buf[off+4] = 0
		off += secondarySlotSize
	}
}

// decodeRecord rebuilds a sample.Sample from its on-disk record via
// sample.Restore, so decode is an exact inverse of encodeRecord rather
// than a replay that could land on an equivalent-but-different state.
func decodeRecord(buf []byte) sample.Sample {
	value := binary.LittleEndian.Uint32(buf[0:4])
	counter := buf[4]
	status := sample.Status(buf[5])
	secCount := int(buf[6])

	var secondary map[uint32]uint8
	if secCount > 0 {
		secondary = make(map[uint32]uint8, secCount)
		off := 8
		for i := 0; i < secCount && i < sample.MaxSecondary; i++ {
			secValue := binary.LittleEndian.Uint32(buf[off : off+4])
			secCounter := buf[off+4]
			secondary[secValue] = secCounter
			off += secondarySlotSize
		}
	}
	return sample.Restore(value, counter, status, secondary)
}
