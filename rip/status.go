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

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/riprip/riprip"
	"github.com/riprip/riprip/offsetmap"
	"github.com/riprip/riprip/trackbuf"
	"github.com/riprip/riprip/verify"
)

// runStatus implements --status (spec §4.8): every requested track's
// buffer is opened read-only via trackbuf.Peeker, its stats and (best
// effort) verification result are computed against cached checksum data,
// and a report is printed without ever touching the drive.
func (c *Controller) runStatus(ctx context.Context, all, tracks []riprip.Track) error {
	dir := stateDir(c.Cfg)
	bundle := c.fetchBundleBestEffort(ctx, len(tracks))
	positions, firstNumber, lastNumber := discPositions(all)

	for _, t := range tracks {
		path := filepath.Join(dir, fmt.Sprintf("state_%02d.bin", t.Number))
		trackSamples := (t.LastLBA - t.FirstLBA + 1) * offsetmap.SamplesPerSector
		pos := positions[t.Number]

		p, err := trackbuf.OpenPeek(path)
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Printf("track %02d: not yet ripped\n", t.Number)
			continue
		}
		if err != nil {
			fmt.Printf("track %02d: unreadable state (%v)\n", t.Number, err)
			continue
		}

		stats, serr := p.Stats()
		if serr != nil {
			return riprip.FatalError{Err: serr}
		}
		h := p.Header()

		fmt.Printf("track %02d: pass %d, empty=%d bad=%d maybe=%d likely=%d",
			t.Number, h.PassCounter, stats.Empty, stats.Bad, stats.Maybe, stats.Likely)
		switch {
		case h.Confirmed:
			fmt.Printf(" [confirmed]\n")
		case bundle != nil && stats.Empty == 0 && stats.Bad == 0:
			samples := bestPCMFromPeeker(p, t, c.Cfg.Offset, trackSamples)
			checksums := verify.Compute(samples, t.Number == firstNumber, t.Number == lastNumber, pos.priorSamples)
			res := verify.Evaluate(checksums, bundle, pos.index, c.Cfg.Confidence)
			if res.Matched {
				fmt.Printf(" [verifies via %s, confidence %d, not yet persisted as confirmed]\n", res.Source, res.Confidence)
			} else {
				fmt.Printf(" [no checksum match]\n")
			}
		default:
			fmt.Printf("\n")
		}
	}
	return nil
}

// bestPCMFromPeeker reconstructs a track's own sample window from a
// read-only Peeker, mirroring trackState.bestPCM without requiring the
// full mutable Buffer machinery.
func bestPCMFromPeeker(p *trackbuf.Peeker, t riprip.Track, offset int64, trackSamples int64) []uint32 {
	h := p.Header()
	sampleOffset := offset + (t.FirstLBA-h.FirstLBA)*offsetmap.SamplesPerSector
	out := make([]uint32, trackSamples)
	for i := range out {
		s, err := p.Sample(sampleOffset + int64(i))
		if err != nil {
			continue
		}
		out[i] = s.Value
	}
	return out
}
