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
	"fmt"
	"os"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// flacBlockSize is the number of stereo frames per FLAC frame written.
// Kept constant and modest-sized rather than tuned per track. Nothing in
// riprip reads the archive back; it is written for the user.
const flacBlockSize = 4096

// WriteFLACArchive writes samples as a FLAC-encoded archival copy at path,
// using verbatim (uncompressed) subframes: the mewkiz/flac decoder side
// this codebase's lineage already depends on (chd/codec_flac.go) has no
// counterpart encoder in the pack, so this follows the same per-channel
// int32-sample framing that decode path exposes, choosing the verbatim
// prediction method since it needs no LPC/Fixed coefficient search and
// this copy exists for lossless round-trip, not for minimal file size.
func WriteFLACArchive(path string, samples []uint32) (err error) {
	f, cerr := os.Create(path) //nolint:gosec // path is derived from the track's own export target, not untrusted input
	if cerr != nil {
		return fmt.Errorf("export: create flac archive: %w", cerr)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	left, right := splitChannels(samples)

	info := &meta.StreamInfo{
		BlockSizeMin:  flacBlockSize,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    sampleRate,
		NChannels:     channels,
		BitsPerSample: bitsPerSample,
		NSamples:      uint64(len(left)),
	}

	enc, err := flac.NewEncoder(f, info)
	if err != nil {
		return fmt.Errorf("export: create flac encoder: %w", err)
	}
	defer func() {
		if cerr := enc.Close(); err == nil {
			err = cerr
		}
	}()

	for start := 0; start < len(left); start += flacBlockSize {
		end := start + flacBlockSize
		if end > len(left) {
			end = len(left)
		}
		n := end - start

		fr := &frame.Frame{
			Header: frame.Header{
				BlockSize:     uint16(n), //nolint:gosec // n <= flacBlockSize
				SampleRate:    sampleRate,
				Channels:      frame.ChannelsLR,
				BitsPerSample: bitsPerSample,
			},
			Subframes: []*frame.Subframe{
				verbatimSubframe(left[start:end]),
				verbatimSubframe(right[start:end]),
			},
		}
		if err := enc.WriteFrame(fr); err != nil {
			return fmt.Errorf("export: write flac frame at sample %d: %w", start, err)
		}
	}

	return nil
}

func verbatimSubframe(channelSamples []int32) *frame.Subframe {
	return &frame.Subframe{
		SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
		Samples:   channelSamples,
		NSamples:  len(channelSamples),
	}
}

// splitChannels separates packed left16|right16<<16 samples into two int32
// slices, sign-extending each 16-bit channel as FLAC subframes expect.
func splitChannels(samples []uint32) (left, right []int32) {
	left = make([]int32, len(samples))
	right = make([]int32, len(samples))
	for i, s := range samples {
		left[i] = int32(int16(s & 0xFFFF))
		right[i] = int32(int16(s >> 16))
	}
	return left, right
}
