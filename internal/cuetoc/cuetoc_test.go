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

package cuetoc

import (
	"os"
	"path/filepath"
	"testing"
)

// writeFixture writes a cue sheet plus a zero-filled bin file sized for
// the given number of sectors, and returns the cue path.
func writeFixture(t *testing.T, cueBody string, sectors int64) string {
	t.Helper()
	dir := t.TempDir()
	binPath := filepath.Join(dir, "disc.bin")
	if err := os.WriteFile(binPath, make([]byte, sectors*2352), 0o644); err != nil {
		t.Fatalf("write bin fixture: %v", err)
	}
	cuePath := filepath.Join(dir, "disc.cue")
	if err := os.WriteFile(cuePath, []byte(cueBody), 0o644); err != nil {
		t.Fatalf("write cue fixture: %v", err)
	}
	return cuePath
}

func TestParse_TwoTrackNoHTOA(t *testing.T) {
	const cue = `FILE "disc.bin" BINARY
  TRACK 01 AUDIO
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    INDEX 00 02:00:00
    INDEX 01 02:02:00
`
	// Track 2 starts at 2:02:00 = (2*60+2)*75 = 9150 frames; give it a
	// little runway past that for the last track.
	cuePath := writeFixture(t, cue, 9300)

	toc, err := Parse(cuePath)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if present, _ := toc.HTOA(); present {
		t.Errorf("HTOA() present = true, want false (track 1 has no INDEX 00)")
	}
	tracks := toc.Tracks()
	if len(tracks) != 2 {
		t.Fatalf("len(Tracks()) = %d, want 2", len(tracks))
	}
	if tracks[0].FirstLBA != 0 {
		t.Errorf("track 1 FirstLBA = %d, want 0", tracks[0].FirstLBA)
	}
	wantTrack2First := int64(2*60+2) * framesPerSecond
	if tracks[0].LastLBA != wantTrack2First-1 {
		t.Errorf("track 1 LastLBA = %d, want %d", tracks[0].LastLBA, wantTrack2First-1)
	}
	if tracks[1].FirstLBA != wantTrack2First {
		t.Errorf("track 2 FirstLBA = %d, want %d", tracks[1].FirstLBA, wantTrack2First)
	}
	if tracks[1].LastLBA != 9300-1 {
		t.Errorf("track 2 LastLBA = %d, want %d", tracks[1].LastLBA, 9300-1)
	}
}

func TestParse_HTOADetectedFromTrackOnePregap(t *testing.T) {
	const cue = `FILE "disc.bin" BINARY
  TRACK 01 AUDIO
    INDEX 00 00:00:00
    INDEX 01 00:02:00
`
	cuePath := writeFixture(t, cue, 300)

	toc, err := Parse(cuePath)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	present, firstLBA := toc.HTOA()
	if !present {
		t.Fatalf("HTOA() present = false, want true")
	}
	if firstLBA != 0 {
		t.Errorf("HTOA firstLBA = %d, want 0", firstLBA)
	}
	wantTrack1First := int64(2) * framesPerSecond
	if got := toc.Tracks()[0].FirstLBA; got != wantTrack1First {
		t.Errorf("track 1 FirstLBA = %d, want %d", got, wantTrack1First)
	}
}

func TestParse_SkipsDataTracks(t *testing.T) {
	const cue = `FILE "disc.bin" BINARY
  TRACK 01 MODE1/2352
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    INDEX 01 00:04:00
`
	cuePath := writeFixture(t, cue, 500)

	toc, err := Parse(cuePath)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(toc.Tracks()) != 1 {
		t.Fatalf("len(Tracks()) = %d, want 1 (data track skipped)", len(toc.Tracks()))
	}
	if toc.Tracks()[0].Number != 2 {
		t.Errorf("remaining track Number = %d, want 2", toc.Tracks()[0].Number)
	}
}

func TestParse_RelativeFilePathJoinedToCueDir(t *testing.T) {
	cuePath := writeFixture(t, `FILE "disc.bin" BINARY
  TRACK 01 AUDIO
    INDEX 01 00:00:00
`, 10)

	toc, err := Parse(cuePath)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	wantBin := filepath.Join(filepath.Dir(cuePath), "disc.bin")
	if toc.BinPath != wantBin {
		t.Errorf("BinPath = %q, want %q", toc.BinPath, wantBin)
	}
}

func TestParse_MissingFileLineIsError(t *testing.T) {
	dir := t.TempDir()
	cuePath := filepath.Join(dir, "disc.cue")
	if err := os.WriteFile(cuePath, []byte("TRACK 01 AUDIO\n  INDEX 01 00:00:00\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Parse(cuePath); err == nil {
		t.Fatal("Parse() error = nil, want error for missing FILE line")
	}
}

func TestParse_NoAudioTracksIsError(t *testing.T) {
	cuePath := writeFixture(t, `FILE "disc.bin" BINARY
  TRACK 01 MODE1/2352
    INDEX 01 00:00:00
`, 10)
	if _, err := Parse(cuePath); err == nil {
		t.Fatal("Parse() error = nil, want error for disc with no AUDIO tracks")
	}
}

func TestParseMSF(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"00:00:00", 0},
		{"00:02:00", 150},
		{"01:00:00", 4500},
	}
	for _, c := range cases {
		got, err := parseMSF(c.in)
		if err != nil {
			t.Errorf("parseMSF(%q) error = %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseMSF(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseMSF_Malformed(t *testing.T) {
	if _, err := parseMSF("not-a-timestamp"); err == nil {
		t.Fatal("parseMSF() error = nil, want error")
	}
}

func TestDiscIDs_EmptyTOCReturnsEmptyMap(t *testing.T) {
	toc := &TOC{}
	ids := toc.DiscIDs()
	if len(ids) != 0 {
		t.Fatalf("DiscIDs() = %v, want empty map", ids)
	}
}
