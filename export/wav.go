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

// Package export writes a ripped track's best-known PCM to disk, either as
// raw samples or a standard WAV container, with an optional FLAC archival
// copy and a whole-disc cue sheet (spec §4.7).
package export

import (
	"encoding/binary"

	"github.com/riprip/riprip/internal/atomicfile"
)

const (
	sampleRate     = 44100
	channels       = 2
	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
)

// wavHeader builds the standard 44-byte canonical WAV/RIFF header for
// nBytes of 44.1kHz/16-bit/stereo PCM data.
func wavHeader(nBytes uint32) []byte {
	b := make([]byte, 44)
	copy(b[0:4], "RIFF")
	binary.LittleEndian.PutUint32(b[4:8], nBytes+44-8)
	copy(b[8:12], "WAVE")
	copy(b[12:16], "fmt ")
	binary.LittleEndian.PutUint32(b[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(b[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(b[22:24], channels)
	binary.LittleEndian.PutUint32(b[24:28], sampleRate)
	binary.LittleEndian.PutUint32(b[28:32], sampleRate*channels*bytesPerSample)
	binary.LittleEndian.PutUint16(b[32:34], channels*bytesPerSample)
	binary.LittleEndian.PutUint16(b[34:36], bitsPerSample)
	copy(b[36:40], "data")
	binary.LittleEndian.PutUint32(b[40:44], nBytes)
	return b
}

// samplesToPCMBytes packs packed left16|right16<<16 sample values (as
// trackbuf stores them) into little-endian interleaved stereo PCM bytes.
func samplesToPCMBytes(samples []uint32) []byte {
	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], s)
	}
	return buf
}

// WriteWAV atomically writes samples as a WAV file at path.
func WriteWAV(path string, samples []uint32) error {
	pcm := samplesToPCMBytes(samples)
	out := make([]byte, 0, 44+len(pcm))
	out = append(out, wavHeader(uint32(len(pcm)))...) //nolint:gosec // track PCM size fits uint32
	out = append(out, pcm...)
	return atomicfile.WriteFile(path, out, 0o644)
}

// WritePCM atomically writes samples as headerless raw PCM at path.
func WritePCM(path string, samples []uint32) error {
	return atomicfile.WriteFile(path, samplesToPCMBytes(samples), 0o644)
}
