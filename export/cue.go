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

package export

import (
	"bytes"
	"fmt"

	"github.com/riprip/riprip/internal/atomicfile"
)

// cdFramesPerSecond is the cue sheet time unit: 75 sectors/frames per
// second of audio, distinct from the 44100 PCM sample rate.
const cdFramesPerSecond = 75

// CueTrack is one track's cue sheet entry: the WAV file holding its
// samples, and its pregap length in CD frames (0 if none). The pregap, if
// any, is the leading portion of the same WAV file (INDEX 00 through
// INDEX 01), matching how this exporter writes one WAV per track.
type CueTrack struct {
	Number       int
	WAVFilename  string
	PregapFrames int
}

// WriteCueSheet writes a whole-disc cue sheet referencing each track's WAV
// filename and the TOC's track indices/pregaps (spec §4.7).
func WriteCueSheet(path string, tracks []CueTrack) error {
	var buf bytes.Buffer
	for _, tr := range tracks {
		fmt.Fprintf(&buf, "FILE %q WAVE\n", tr.WAVFilename)
		fmt.Fprintf(&buf, "  TRACK %02d AUDIO\n", tr.Number)
		if tr.PregapFrames > 0 {
			fmt.Fprintf(&buf, "    INDEX 00 %s\n", cueTimestamp(0))
			fmt.Fprintf(&buf, "    INDEX 01 %s\n", cueTimestamp(tr.PregapFrames))
		} else {
			fmt.Fprintf(&buf, "    INDEX 01 %s\n", cueTimestamp(0))
		}
	}
	return atomicfile.WriteFile(path, buf.Bytes(), 0o644)
}

// cueTimestamp formats a CD-frame offset as cue sheet MM:SS:FF.
func cueTimestamp(frames int) string {
	totalSeconds := frames / cdFramesPerSecond
	f := frames % cdFramesPerSecond
	m := totalSeconds / 60
	s := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", m, s, f)
}
