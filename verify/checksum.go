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

// Package verify computes AccurateRip v1/v2 and CTDB CRC32 checksums over a
// ripped track's best-known PCM, fetches (or imports offline) the reference
// checksums for a disc, and decides whether a track has been Confirmed
// (spec §4.6).
package verify

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/riprip/riprip/offsetmap"
)

// boundarySkipSamples is how many samples at the very start of track 1 and
// the very end of the last track are excluded from the AccurateRip weighted
// sum: the pressing-dependent pregap/postgap region AccurateRip's published
// algorithm trims from every disc, 5 sectors minus the final sample.
const boundarySkipSamples = 5*offsetmap.SamplesPerSector - 1

// Checksums holds the three reference values the verifier compares against
// AccurateRip/CTDB data for one track.
type Checksums struct {
	AccurateRipV1 uint32
	AccurateRipV2 uint32
	CTDBCrc32     uint32
}

// Compute derives a track's checksums from its best-known PCM samples
// (packed left16|right16<<16, little-endian, as trackbuf stores them).
// isFirstTrack and isLastTrack select the AccurateRip boundary trimming
// (spec §4.6); absoluteSampleOffset is this track's first sample's position
// within the whole-disc weighted sum (0 for the first track, the running
// total of prior tracks' sample counts otherwise).
func Compute(samples []uint32, isFirstTrack, isLastTrack bool, absoluteSampleOffset int64) Checksums {
	return Checksums{
		AccurateRipV1: accurateRipV1(samples, isFirstTrack, isLastTrack, absoluteSampleOffset),
		AccurateRipV2: accurateRipV2(samples, isFirstTrack, isLastTrack, absoluteSampleOffset),
		CTDBCrc32:     ctdbCrc32(samples),
	}
}

// skipRange returns the [lo, hi) sub-slice of samples that actually
// contributes to the AccurateRip sum after boundary trimming.
func skipRange(n int, isFirstTrack, isLastTrack bool) (lo, hi int) {
	lo, hi = 0, n
	if isFirstTrack && lo+boundarySkipSamples < hi {
		lo += boundarySkipSamples
	}
	if isLastTrack && hi-boundarySkipSamples > lo {
		hi -= boundarySkipSamples
	}
	return lo, hi
}

// accurateRipV1 implements the classic weighted-CRC AccurateRip algorithm:
// sum of (absolute 1-based sample position) * sample, truncated to 32 bits.
func accurateRipV1(samples []uint32, isFirstTrack, isLastTrack bool, absoluteSampleOffset int64) uint32 {
	lo, hi := skipRange(len(samples), isFirstTrack, isLastTrack)
	var sum uint32
	for i := lo; i < hi; i++ {
		weight := uint32(absoluteSampleOffset + int64(i) + 1)
		sum += weight * samples[i]
	}
	return sum
}

// accurateRipV2 implements the v2 algorithm: each sample's 64-bit product
// with its 1-based weight is summed in a 64-bit accumulator, and the final
// checksum is the XOR of the accumulator's high and low 32 bits.
func accurateRipV2(samples []uint32, isFirstTrack, isLastTrack bool, absoluteSampleOffset int64) uint32 {
	lo, hi := skipRange(len(samples), isFirstTrack, isLastTrack)
	var sum uint64
	for i := lo; i < hi; i++ {
		weight := uint64(absoluteSampleOffset + int64(i) + 1)
		sum += weight * uint64(samples[i])
	}
	return uint32(sum) ^ uint32(sum>>32)
}

// ctdbCrc32 is CUETools' CRC32 over the track's raw little-endian PCM
// bytes, with no boundary trimming.
func ctdbCrc32(samples []uint32) uint32 {
	buf := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], s)
	}
	return crc32.ChecksumIEEE(buf)
}
