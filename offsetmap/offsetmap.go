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

// Package offsetmap converts between disc sectors and track-relative sample
// indices, applying a drive's signed read offset (spec §4.3).
package offsetmap

// SamplesPerSector is the number of stereo 16-bit samples in one CD sector
// (2352 bytes / 4 bytes-per-sample).
const SamplesPerSector = 588

// MaxOffsetSamples bounds a plausible signed read offset, per spec §6.2
// (-5880..=5880).
const MaxOffsetSamples = 5880

// floorDiv and floorMod implement Euclidean (floor) division, which Go's
// built-in / and % do not: -1/588 truncates to 0, but we need -1.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}

// Mapper converts between a track's sample indices and absolute disc
// sectors, for one fixed drive read offset (in samples, signed).
type Mapper struct {
	Offset int64
}

// ToDisc returns the absolute disc sector and in-sector sample offset that
// holds track-relative sample index trackSample.
func (m Mapper) ToDisc(trackSample int64) (lba int64, inSector int) {
	driveSample := trackSample + m.Offset
	lba = floorDiv(driveSample, SamplesPerSector)
	inSector = int(floorMod(driveSample, SamplesPerSector))
	return lba, inSector
}

// FromDisc is the inverse of ToDisc: given an absolute disc sector and
// in-sector sample offset, returns the corresponding track-relative sample
// index.
func (m Mapper) FromDisc(lba int64, inSector int) int64 {
	driveSample := lba*SamplesPerSector + int64(inSector)
	return driveSample - m.Offset
}

// SectorRange returns the inclusive range of disc sectors [lo, hi] that
// must be read to cover every sample of a track spanning track-relative
// sample indices [0, trackSamples).
//
// Per spec §4.3: for a track LBA range [A, B], the sectors needed are
// [A + floor(offset/588), B + ceil(offset/588)].
func (m Mapper) SectorRange(firstLBA, lastLBA int64) (lo, hi int64) {
	lo = firstLBA + floorDiv(m.Offset, SamplesPerSector)
	hi = lastLBA + ceilDiv(m.Offset, SamplesPerSector)
	return lo, hi
}

func ceilDiv(a, b int64) int64 {
	return -floorDiv(-a, b)
}

// InTrack reports whether a track-relative sample index falls within the
// track's own sample count; samples outside this range came from an
// adjacent sector pulled in by a nonzero offset and belong (if anywhere)
// to a neighboring track.
func InTrack(trackSample int64, trackSamples int64) bool {
	return trackSample >= 0 && trackSample < trackSamples
}
