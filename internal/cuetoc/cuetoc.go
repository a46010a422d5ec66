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

// Package cuetoc implements riprip.TOC by parsing a single-FILE audio cue
// sheet, the conventional way a ripped-or-to-be-ripped disc's track
// layout is described on disk. A real Drive's own TOC-read command is out
// of scope (spec §1); this is the on-disk stand-in test fixtures and
// image-file rips use instead.
package cuetoc

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/riprip/riprip"
	"github.com/riprip/riprip/internal/discid"
)

// framesPerSecond is the cue sheet MM:SS:FF time unit, the same 75
// sectors/frames per second as the disc itself.
const framesPerSecond = 75

// TOC is a riprip.TOC backed by one cue sheet's worth of track/index
// entries, plus the size of the audio image file it references (needed to
// bound the last track's LastLBA, since a cue sheet never states it
// directly).
type TOC struct {
	BinPath      string
	tracks       []riprip.Track
	htoaPresent  bool
	htoaFirstLBA int64
}

// Tracks implements riprip.TOC.
func (t *TOC) Tracks() []riprip.Track { return t.tracks }

// HTOA implements riprip.TOC.
func (t *TOC) HTOA() (present bool, firstLBA int64) { return t.htoaPresent, t.htoaFirstLBA }

// DiscIDs implements riprip.TOC, computing the AccurateRip/CDDB disc IDs
// from this TOC's own track layout (internal/discid).
func (t *TOC) DiscIDs() map[string]string {
	if len(t.tracks) == 0 {
		return map[string]string{}
	}
	dtracks := make([]discid.Track, len(t.tracks))
	for i, tr := range t.tracks {
		dtracks[i] = discid.Track{StartSector: tr.FirstLBA + 150}
	}
	leadout := t.tracks[len(t.tracks)-1].LastLBA + 1 + 150
	id1, id2, cddb := discid.AccurateRip(dtracks, leadout)
	ar := fmt.Sprintf("%08x-%08x-%08x", id1, id2, cddb)
	// The real CTDB protocol negotiates by full TOC rather than a bare ID
	// (see rip/verify_support.go's ctdbURL doc comment); reusing the same
	// freedb-derived ID as its lookup key is this TOC's half of that
	// documented simplification.
	return map[string]string{"accuraterip": ar, "ctdb": fmt.Sprintf("%08x", cddb)}
}

// cueEntry is one parsed TRACK block before LastLBA can be resolved
// (which requires knowing the next track's FirstLBA, or end of file for
// the last one).
type cueEntry struct {
	number      int
	index00LBA  int64
	haveIndex00 bool
	index01LBA  int64
}

// Parse reads a single-FILE audio cue sheet and the size of the binary
// image it references, and returns the TOC it describes. Multi-FILE cue
// sheets (one image per track) are not supported — a simplification
// documented in DESIGN.md, since every fixture and real single-session
// rip in this corpus uses one image per disc.
func Parse(cuePath string) (*TOC, error) {
	f, err := os.Open(cuePath) //nolint:gosec // path is operator-supplied, same trust level as any CLI arg
	if err != nil {
		return nil, fmt.Errorf("cuetoc: open %s: %w", cuePath, err)
	}
	defer func() { _ = f.Close() }()

	cueDir := filepath.Dir(cuePath)
	var binPath string
	var entries []cueEntry
	var cur *cueEntry

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch strings.ToUpper(fields[0]) {
		case "FILE":
			parts := strings.Split(line, "\"")
			if len(parts) < 2 {
				return nil, fmt.Errorf("cuetoc: malformed FILE line %q", line)
			}
			binPath = strings.TrimSpace(parts[1])
			if !filepath.IsAbs(binPath) {
				binPath = filepath.Join(cueDir, binPath)
			}
		case "TRACK":
			if len(fields) < 3 || !strings.EqualFold(fields[2], "AUDIO") {
				continue // skip non-audio tracks (spec excludes data tracks)
			}
			num, perr := strconv.Atoi(fields[1])
			if perr != nil {
				return nil, fmt.Errorf("cuetoc: malformed TRACK number %q: %w", fields[1], perr)
			}
			entries = append(entries, cueEntry{number: num})
			cur = &entries[len(entries)-1]
		case "INDEX":
			if cur == nil || len(fields) < 3 {
				continue
			}
			lba, perr := parseMSF(fields[2])
			if perr != nil {
				return nil, fmt.Errorf("cuetoc: malformed INDEX timestamp %q: %w", fields[2], perr)
			}
			switch fields[1] {
			case "00":
				cur.haveIndex00 = true
				cur.index00LBA = lba
			case "01":
				cur.index01LBA = lba
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cuetoc: scan %s: %w", cuePath, err)
	}
	if binPath == "" {
		return nil, fmt.Errorf("cuetoc: %s names no FILE", cuePath)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("cuetoc: %s names no AUDIO tracks", cuePath)
	}

	fi, err := os.Stat(binPath)
	if err != nil {
		return nil, fmt.Errorf("cuetoc: stat %s: %w", binPath, err)
	}
	lastLBA := fi.Size()/2352 - 1

	toc := &TOC{BinPath: binPath}
	if entries[0].haveIndex00 && entries[0].index01LBA > entries[0].index00LBA {
		toc.htoaPresent = true
		toc.htoaFirstLBA = entries[0].index00LBA
	}
	for i, e := range entries {
		last := lastLBA
		if i+1 < len(entries) {
			last = entries[i+1].index01LBA - 1
		}
		toc.tracks = append(toc.tracks, riprip.Track{
			Number:   e.number,
			FirstLBA: e.index01LBA,
			LastLBA:  last,
		})
	}
	return toc, nil
}

// parseMSF converts a cue sheet MM:SS:FF timestamp to an LBA (frame
// count), the same unit as a disc sector.
func parseMSF(s string) (int64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected MM:SS:FF, got %q", s)
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	sec, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	fr, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, err
	}
	return int64(m*60*framesPerSecond + sec*framesPerSecond + fr), nil
}
