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

// Package schedule computes, for one pass, the union of disc sectors that
// still need a read across a set of open track buffers (spec §4.5).
package schedule

import (
	"sort"

	"github.com/riprip/riprip/trackbuf"
)

// Direction selects which way a pass walks its sector plan.
type Direction int

const (
	Forward Direction = iota
	Backward
	FlipFlop
)

// Policy configures scheduling for one invocation, mirroring the
// controller's CLI flags.
type Policy struct {
	Cutoff      uint8 // rereads.abs: agreements a Likely sample needs before it stops demanding re-reads
	Direction   Direction
	RequireSync bool // --sync: a sector with a stale/bad subchannel read also needs a re-read
}

// Track is one open track buffer participating in this pass.
type Track struct {
	Buffer    *trackbuf.Buffer
	Confirmed bool // short-circuits to contributing no sectors, per spec §4.5
}

// Plan returns the deduplicated, direction-ordered set of disc LBAs that
// pass passNum needs to read across every track in tracks.
func Plan(tracks []Track, policy Policy, passNum int) ([]int64, error) {
	needed := make(map[int64]struct{})

	for _, tr := range tracks {
		if tr.Confirmed {
			continue
		}
		first, last := tr.Buffer.FirstLBA(), tr.Buffer.LastLBA()
		for lba := first; lba <= last; lba++ {
			need, err := tr.Buffer.SectorNeedsRead(lba, policy.Cutoff, policy.RequireSync)
			if err != nil {
				return nil, err
			}
			if need {
				needed[lba] = struct{}{}
			}
		}
	}

	out := make([]int64, 0, len(needed))
	for lba := range needed {
		out = append(out, lba)
	}

	dir := policy.Direction
	if dir == FlipFlop {
		if passNum%2 == 0 {
			dir = Forward
		} else {
			dir = Backward
		}
	}
	switch dir {
	case Backward:
		sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	default:
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	}

	return out, nil
}

// CacheBustLBA picks a dummy LBA far from the sectors about to be read,
// for the drive collaborator's pre-pass cache bust (spec §4.5): the
// sector on the opposite end of the disc from the plan's first target.
func CacheBustLBA(plan []int64, discFirstLBA, discLastLBA int64) (int64, bool) {
	if len(plan) == 0 {
		return 0, false
	}
	mid := (discFirstLBA + discLastLBA) / 2
	if plan[0] < mid {
		return discLastLBA, true
	}
	return discFirstLBA, true
}
