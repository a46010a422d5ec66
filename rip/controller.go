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

// Package rip implements the controller described in spec §4.8: the
// single-threaded state machine that drives a track buffer through
// open/read/ingest cycles, persists it, asks the verifier to confirm it,
// and finally exports it, all cancellable via SIGINT between sectors and
// passes.
package rip

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/riprip/riprip"
	"github.com/riprip/riprip/export"
	"github.com/riprip/riprip/ingest"
	"github.com/riprip/riprip/offsetmap"
	"github.com/riprip/riprip/schedule"
	"github.com/riprip/riprip/trackbuf"
	"github.com/riprip/riprip/verify"
)

// Controller orchestrates one invocation's worth of ripping, verification,
// and export across every requested track (spec §4.8).
type Controller struct {
	Cfg     riprip.Config
	Drive   riprip.Drive
	TOC     riprip.TOC
	HTTPGet verify.HTTPGet
	Logger  *log.Logger
}

// New builds a Controller with the real HTTP fetcher wired in; tests
// substitute Drive, TOC, and HTTPGet with scripted fakes.
func New(cfg riprip.Config, drive riprip.Drive, toc riprip.TOC) *Controller {
	return &Controller{Cfg: cfg, Drive: drive, TOC: toc, HTTPGet: verify.DefaultHTTPGet}
}

func (c *Controller) logf(format string, args ...any) {
	if c.Cfg.NoSummary {
		return
	}
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...) //nolint:errcheck // progress output, not a hard failure
}

// trackState is one open track buffer plus the geometry needed to ingest
// sectors into it and to slice its own samples back out for verification
// and export.
type trackState struct {
	Number        int
	Buf           *trackbuf.Buffer
	Mapper        offsetmap.Mapper
	TrackFirstLBA int64
	TrackSamples  int64
	// sampleOffset is the buffer-local index of this track's own sample 0,
	// computed once since the read offset is a constant shift (see
	// offsetmap.Mapper): the track's own samples always form a contiguous
	// window within the (possibly slightly larger) buffer.
	sampleOffset int64
}

func (st *trackState) bestPCM(fallbackToLastBad bool) ([]uint32, error) {
	return st.Buf.BestPCM(st.sampleOffset, st.sampleOffset+st.TrackSamples, fallbackToLastBad)
}

// Run executes the controller end to end: --status short-circuits into a
// read-only report; otherwise tracks are opened/created, passes are run
// until exhaustion, cancellation, or full verification, then every
// eligible track is verified and exported.
func (c *Controller) Run(ctx context.Context) (err error) {
	if verr := c.Cfg.Validate(); verr != nil {
		return riprip.FatalError{Err: verr}
	}

	all := c.TOC.Tracks()
	wanted := selectTracks(all, c.Cfg.Tracks)
	if len(wanted) == 0 {
		return riprip.FatalError{Err: fmt.Errorf("no tracks matched -t/--tracks")}
	}

	if c.Cfg.Status {
		return c.runStatus(ctx, all, wanted)
	}

	states, err := c.openTracks(wanted)
	if err != nil {
		return err
	}
	defer func() {
		for _, st := range states {
			if perr := st.Buf.Persist(); perr != nil && err == nil {
				err = perr
			}
		}
	}()

	if c.Cfg.Reset {
		for _, st := range states {
			st.Buf.ResetSoft()
		}
	}

	cancel := newCancelFlag()
	defer cancel.close()

	if !c.Cfg.NoRip {
		if derr := c.Drive.Open(c.Cfg.DevPath); derr != nil {
			return riprip.FatalError{Err: fmt.Errorf("open drive %s: %w", c.Cfg.DevPath, derr)}
		}
		defer func() { _ = c.Drive.Close() }()

		discFirst, discLast := discRange(all)
		cancelled, perr := c.runPasses(states, cancel, discFirst, discLast)
		if perr != nil {
			return perr
		}
		if cancelled {
			return riprip.ErrUserCancelled
		}
	}

	exportedAny, err := c.verifyAndExport(ctx, states, all, len(wanted) == len(all))
	if err != nil {
		return err
	}
	if !exportedAny && cancel.cancelled() {
		return riprip.ErrUserCancelled
	}
	return nil
}

func selectTracks(all []riprip.Track, want []int) []riprip.Track {
	if len(want) == 0 {
		return all
	}
	set := make(map[int]bool, len(want))
	for _, n := range want {
		set[n] = true
	}
	var out []riprip.Track
	for _, t := range all {
		if set[t.Number] {
			out = append(out, t)
		}
	}
	return out
}

// discPosition is one track's true position among every track on the
// disc, independent of whichever subset -t/--tracks selected for this
// invocation.
type discPosition struct {
	index        int   // 0-based rank among every disc track
	priorSamples int64 // nominal samples of every disc track ranked before this one
}

// discPositions maps every whole-disc track number to its true position
// and nominal-sample offset, plus the disc's first and last track
// numbers, so the AccurateRip boundary trim and position-weighted sum
// (spec §4.6) key off the disc's real track order rather than a
// selection's (tracks is assumed sorted in disc order, as TOC.Tracks
// documents).
func discPositions(all []riprip.Track) (positions map[int]discPosition, firstNumber, lastNumber int) {
	positions = make(map[int]discPosition, len(all))
	var prior int64
	for i, t := range all {
		positions[t.Number] = discPosition{index: i, priorSamples: prior}
		prior += (t.LastLBA - t.FirstLBA + 1) * offsetmap.SamplesPerSector
	}
	if len(all) > 0 {
		firstNumber, lastNumber = all[0].Number, all[len(all)-1].Number
	}
	return positions, firstNumber, lastNumber
}

func discRange(all []riprip.Track) (first, last int64) {
	if len(all) == 0 {
		return 0, 0
	}
	first, last = all[0].FirstLBA, all[0].LastLBA
	for _, t := range all[1:] {
		if t.FirstLBA < first {
			first = t.FirstLBA
		}
		if t.LastLBA > last {
			last = t.LastLBA
		}
	}
	return first, last
}

// stateDir returns the per-drive-offset-variant directory holding every
// track's state_<NN>.bin and exported output (spec §6.3).
func stateDir(cfg riprip.Config) string {
	return filepath.Join(cfg.StateDir, fmt.Sprintf("offset_%+d", cfg.Offset))
}

func (c *Controller) openTracks(tracks []riprip.Track) ([]*trackState, error) {
	dir := stateDir(c.Cfg)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // state dir is not security-sensitive
		return nil, riprip.FatalError{Err: fmt.Errorf("create state dir %s: %w", dir, err)}
	}

	mapper := offsetmap.Mapper{Offset: c.Cfg.Offset}
	states := make([]*trackState, 0, len(tracks))
	for _, t := range tracks {
		lo, hi := mapper.SectorRange(t.FirstLBA, t.LastLBA)
		path := filepath.Join(dir, fmt.Sprintf("state_%02d.bin", t.Number))

		var buf *trackbuf.Buffer
		if !c.Cfg.NoResume {
			if b, err := trackbuf.Open(path, c.Cfg.Offset, lo, hi); err == nil {
				buf = b
			} else if !errors.Is(err, fs.ErrNotExist) {
				c.logf("state %s unusable (%v), starting fresh", path, err)
			}
		}
		if buf == nil {
			buf = trackbuf.New(path, c.Cfg.Offset, lo, hi, c.Cfg.TrackbufPolicy(), c.Cfg.CodecTag())
		}

		trackSamples := (t.LastLBA - t.FirstLBA + 1) * offsetmap.SamplesPerSector
		sampleOffset := c.Cfg.Offset + (t.FirstLBA-lo)*offsetmap.SamplesPerSector
		states = append(states, &trackState{
			Number:        t.Number,
			Buf:           buf,
			Mapper:        mapper,
			TrackFirstLBA: t.FirstLBA,
			TrackSamples:  trackSamples,
			sampleOffset:  sampleOffset,
		})
	}
	return states, nil
}

func buildIngestTargets(states []*trackState) []ingest.Target {
	targets := make([]ingest.Target, len(states))
	for i, st := range states {
		targets[i] = ingest.Target{
			Buffer:        st.Buf,
			Mapper:        st.Mapper,
			TrackFirstLBA: st.TrackFirstLBA,
			TrackSamples:  st.TrackSamples,
		}
	}
	return targets
}

// runPasses repeats the scheduler->drive->ingest->persist cycle until the
// scheduler has nothing left to plan, the configured pass budget is
// exhausted, or cancellation is observed (spec §4.5, §4.8).
func (c *Controller) runPasses(states []*trackState, cancel *cancelFlag, discFirst, discLast int64) (cancelled bool, err error) {
	targets := buildIngestTargets(states)

	for passNum := 0; passNum < c.Cfg.Passes; passNum++ {
		if cancel.cancelled() {
			return true, nil
		}

		schedTracks := make([]schedule.Track, len(states))
		for i, st := range states {
			schedTracks[i] = schedule.Track{Buffer: st.Buf, Confirmed: st.Buf.Header().Confirmed}
		}
		policy := schedule.Policy{Cutoff: c.Cfg.Cutoff, Direction: c.Cfg.Direction, RequireSync: !c.Cfg.NoSync}
		plan, perr := schedule.Plan(schedTracks, policy, passNum)
		if perr != nil {
			return false, riprip.FatalError{Err: perr}
		}
		if len(plan) == 0 {
			c.logf("pass %d: nothing left to read", passNum+1)
			break
		}

		if !c.Cfg.NoCacheBust {
			if bustLBA, ok := schedule.CacheBustLBA(plan, discFirst, discLast); ok {
				if berr := c.Drive.CacheBust(bustLBA); berr != nil {
					c.logf("cache bust at lba %d failed: %v", bustLBA, berr)
				}
			}
		}

		c.logf("pass %d/%d: reading %d sector(s)", passNum+1, c.Cfg.Passes, len(plan))
		for _, lba := range plan {
			if cancel.cancelled() {
				return true, nil
			}
			sec, rerr := c.Drive.ReadSector(lba, !c.Cfg.NoC2, !c.Cfg.NoSync)
			if rerr != nil {
				c.logf("%v", riprip.TransportError{LBA: lba, Err: rerr})
				continue
			}
			opt := ingest.Options{
				Strict:         c.Cfg.Strict,
				SyncCheck:      !c.Cfg.NoSync,
				ExpectQMatches: expectQMatches,
			}
			if _, ierr := ingest.Ingest(sec, targets, opt); ierr != nil {
				return false, riprip.FatalError{Err: ierr}
			}
		}

		for _, st := range states {
			st.Buf.IncrementPass()
			if perr := st.Buf.Persist(); perr != nil {
				return false, riprip.FatalError{Err: perr}
			}
		}
	}
	return false, nil
}

// verifyAndExport checks every not-yet-Confirmed, fully-read track against
// the reference checksums, marks matches Confirmed, and exports every
// track that is Confirmed or has exhausted its pass budget (spec §4.6,
// §4.7).
func (c *Controller) verifyAndExport(ctx context.Context, states []*trackState, all []riprip.Track, wholeDisc bool) (exportedAny bool, err error) {
	bundle := c.fetchBundleBestEffort(ctx, len(states))

	dir := stateDir(c.Cfg)
	var cueTracks []export.CueTrack
	htoaPresent, htoaFirstLBA := c.TOC.HTOA()
	positions, firstNumber, lastNumber := discPositions(all)

	for _, st := range states {
		h := st.Buf.Header()
		stats := st.Buf.Stats()
		fullyRead := stats.Empty == 0 && stats.Bad == 0
		pos := positions[st.Number]

		if !h.Confirmed && fullyRead && bundle != nil {
			samples, berr := st.bestPCM(false)
			if berr != nil {
				return exportedAny, riprip.FatalError{Err: berr}
			}
			checksums := verify.Compute(samples, st.Number == firstNumber, st.Number == lastNumber, pos.priorSamples)
			res := verify.Evaluate(checksums, bundle, pos.index, c.Cfg.Confidence)
			if res.Matched {
				st.Buf.MarkConfirmed(checksums.AccurateRipV1, checksums.CTDBCrc32)
				c.logf("track %d confirmed via %s (confidence %d)", st.Number, res.Source, res.Confidence)
			} else {
				c.logf("track %d: %v", st.Number, riprip.VerificationMiss{Track: st.Number})
			}
			if perr := st.Buf.Persist(); perr != nil {
				return exportedAny, riprip.FatalError{Err: perr}
			}
		}

		exhausted := st.Buf.Header().PassCounter >= uint32(c.Cfg.Passes) //nolint:gosec // Passes is bounded [1,16]
		if !st.Buf.Header().Confirmed && !exhausted {
			continue
		}

		samples, berr := st.bestPCM(true)
		if berr != nil {
			return exportedAny, riprip.FatalError{Err: berr}
		}
		wavName := fmt.Sprintf("%02d.wav", st.Number)
		if c.Cfg.Raw {
			wavName = fmt.Sprintf("%02d.pcm", st.Number)
			if werr := export.WritePCM(filepath.Join(dir, wavName), samples); werr != nil {
				return exportedAny, riprip.FatalError{Err: werr}
			}
		} else if werr := export.WriteWAV(filepath.Join(dir, wavName), samples); werr != nil {
			return exportedAny, riprip.FatalError{Err: werr}
		}
		if c.Cfg.FLACArchive && st.Buf.Header().Confirmed {
			flacPath := filepath.Join(dir, fmt.Sprintf("%02d.flac", st.Number))
			if ferr := export.WriteFLACArchive(flacPath, samples); ferr != nil {
				return exportedAny, riprip.FatalError{Err: ferr}
			}
		}
		exportedAny = true
		pregap := 0
		if st.Number == 1 && htoaPresent {
			pregap = int(st.TrackFirstLBA - htoaFirstLBA)
		}
		cueTracks = append(cueTracks, export.CueTrack{Number: st.Number, WAVFilename: wavName, PregapFrames: pregap})
	}

	if wholeDisc && exportedAny && !c.Cfg.Raw {
		if cerr := export.WriteCueSheet(filepath.Join(dir, "riprip.cue"), cueTracks); cerr != nil {
			return exportedAny, riprip.FatalError{Err: cerr}
		}
	}
	return exportedAny, nil
}

func (c *Controller) fetchBundleBestEffort(ctx context.Context, trackCount int) *verify.Bundle {
	var cache *verify.Cache
	if c.Cfg.BundlePath == "" {
		cacheDir := filepath.Join(c.Cfg.StateDir, "cache")
		var cerr error
		cache, cerr = verify.NewCache(cacheDir)
		if cerr != nil {
			c.logf("checksum cache unavailable: %v", cerr)
			return nil
		}
	}
	get := c.HTTPGet
	if get == nil {
		get = verify.DefaultHTTPGet
	}
	bundle, err := fetchBundle(ctx, cache, get, c.Cfg.BundlePath, c.TOC.DiscIDs(), trackCount)
	if err != nil {
		c.logf("%v", riprip.ChecksumFetchError{URL: "accuraterip/ctdb", Err: err})
		return nil
	}
	return bundle
}
