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

package riprip

import (
	"fmt"

	"github.com/riprip/riprip/sample"
	"github.com/riprip/riprip/schedule"
	"github.com/riprip/riprip/trackbuf"
)

// CacheCodec selects how a persisted track buffer's sample array is
// compressed on disk (SPEC_FULL §3: the header's compressed-flags byte).
type CacheCodec uint8

const (
	CacheCodecNone CacheCodec = iota
	CacheCodecZstd
	CacheCodecLZMA
)

// Config assembles every CLI-tunable rip option into one value, built
// once by the CLI from flags and passed down to the controller
// unchanged.
type Config struct {
	DevPath string
	Tracks  []int // empty means every track on the disc

	Offset       int64 // signed read offset, samples
	Rereads      sample.Rereads
	Cutoff       uint8
	Passes       int
	Direction    schedule.Direction
	Confidence   int
	CacheKiB     int
	CacheCodec   CacheCodec
	NoResume     bool
	NoRip        bool
	NoSummary    bool
	NoC2         bool
	NoCacheBust  bool
	NoSync       bool
	Reset        bool
	Status       bool
	Strict       bool
	Verbose      bool
	Raw          bool // export raw PCM instead of WAV
	FLACArchive  bool
	BundlePath   string // offline AccurateRip/CTDB bundle, see verify.ImportBundle
	StateDir     string // defaults to "./_riprip"
}

// DefaultConfig returns the documented defaults for every option not set
// explicitly by the caller (spec §6.2).
func DefaultConfig() Config {
	return Config{
		Rereads:    sample.Rereads{Abs: 2, Mul: 2},
		Cutoff:     2,
		Passes:     8,
		Direction:  schedule.Forward,
		Confidence: 3,
		CacheKiB:   0,
		CacheCodec: CacheCodecNone,
		StateDir:   "./_riprip",
	}
}

// Validate checks the documented option ranges: offset ±5880, confidence
// 1..=10, passes 1..=16, cutoff 1..=32.
func (c Config) Validate() error {
	const maxOffset = 5880
	if c.Offset < -maxOffset || c.Offset > maxOffset {
		return fmt.Errorf("riprip: offset %d out of range [-%d,%d]", c.Offset, maxOffset, maxOffset)
	}
	if c.Confidence < 1 || c.Confidence > 10 {
		return fmt.Errorf("riprip: confidence %d out of range [1,10]", c.Confidence)
	}
	if c.Passes < 1 || c.Passes > 16 {
		return fmt.Errorf("riprip: passes %d out of range [1,16]", c.Passes)
	}
	if c.Cutoff < 1 || c.Cutoff > 32 {
		return fmt.Errorf("riprip: cutoff %d out of range [1,32]", c.Cutoff)
	}
	return nil
}

// TrackbufPolicy adapts the CLI-level config into the narrower policy
// trackbuf.New needs.
func (c Config) TrackbufPolicy() trackbuf.Policy {
	return trackbuf.Policy{
		Rereads:   c.Rereads,
		StrictC2:  c.Strict,
		C2Enabled: !c.NoC2,
	}
}

// CodecTag maps the CLI cache codec choice onto the on-disk header tag.
func (c Config) CodecTag() uint8 {
	switch c.CacheCodec {
	case CacheCodecZstd:
		return trackbuf.CodecZstd
	case CacheCodecLZMA:
		return trackbuf.CodecLZMA
	default:
		return trackbuf.CodecNone
	}
}
