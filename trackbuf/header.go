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

package trackbuf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/riprip/riprip/sample"
)

// magic identifies a riprip track buffer file.
var magic = [8]byte{'R', 'I', 'P', 'R', 'I', 'P', 'T', 'B'}

// version is the current on-disk header layout version. Bumping this
// requires a migration path in openHeader; buffers only grow by
// header-version migration, never shrink.
const version uint16 = 1

// Compression codec tags for the per-sample array and C2/subchannel
// tables, stored in the header's Codec field.
const (
	CodecNone uint8 = 0
	CodecZstd uint8 = 1
	CodecLZMA uint8 = 2
)

// headerSize is the fixed byte length of the on-disk header, ahead of the
// variable-length sample/C2/subchannel tables.
const headerSize = 64

// Header is the persistent metadata for one track buffer, per spec §4.2:
// magic, version, drive offset, track LBA range, rereads policy, pass
// counter, last-verified checksum summary, and compression flags.
type Header struct {
	DriveOffset   int64
	FirstLBA      int64
	LastLBA       int64
	Rereads       sample.Rereads
	StrictC2      bool
	C2Enabled     bool
	PassCounter   uint32
	Codec         uint8
	LastARChecksum  uint32
	LastCTDBChecksum uint32
	Confirmed     bool
}

// sectorCount is the inclusive number of sectors the header's LBA range
// spans.
func (h Header) sectorCount() int64 {
	return h.LastLBA - h.FirstLBA + 1
}

// sampleCount is the number of stereo samples the buffer holds: one
// sector's worth (588) per covered sector.
func (h Header) sampleCount() int64 {
	return h.sectorCount() * samplesPerSector
}

func (h Header) encode() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:8], magic[:])
	binary.LittleEndian.PutUint16(buf[8:10], version)
	binary.LittleEndian.PutUint64(buf[10:18], uint64(h.DriveOffset))
	binary.LittleEndian.PutUint64(buf[18:26], uint64(h.FirstLBA))
	binary.LittleEndian.PutUint64(buf[26:34], uint64(h.LastLBA))
	buf[34] = h.Rereads.Abs
	buf[35] = h.Rereads.Mul
	buf[36] = boolByte(h.StrictC2)
	buf[37] = boolByte(h.C2Enabled)
	binary.LittleEndian.PutUint32(buf[38:42], h.PassCounter)
	buf[42] = h.Codec
	binary.LittleEndian.PutUint32(buf[43:47], h.LastARChecksum)
	binary.LittleEndian.PutUint32(buf[47:51], h.LastCTDBChecksum)
	buf[51] = boolByte(h.Confirmed)
	// buf[52:64] reserved, left zero for future header-version migration
	return buf
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

var (
	// ErrBadMagic means the file is not a riprip track buffer.
	ErrBadMagic = errors.New("trackbuf: bad magic")
	// ErrUnsupportedVersion means the header's version is newer than this
	// build understands.
	ErrUnsupportedVersion = errors.New("trackbuf: unsupported version")
	// ErrIdentityMismatch means the on-disk header's drive offset or LBA
	// range disagrees with what the caller asked to open; per spec this
	// requires --no-resume (a hard reset) rather than a silent merge.
	ErrIdentityMismatch = errors.New("trackbuf: drive offset or LBA range mismatch, pass --no-resume to discard")
)

func decodeHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < headerSize {
		return h, fmt.Errorf("trackbuf: short header: %d bytes", len(buf))
	}
	var gotMagic [8]byte
	copy(gotMagic[:], buf[0:8])
	if gotMagic != magic {
		return h, ErrBadMagic
	}
	gotVersion := binary.LittleEndian.Uint16(buf[8:10])
	if gotVersion > version {
		return h, fmt.Errorf("%w: file is version %d, this build supports up to %d", ErrUnsupportedVersion, gotVersion, version)
	}
	h.DriveOffset = int64(binary.LittleEndian.Uint64(buf[10:18]))
	h.FirstLBA = int64(binary.LittleEndian.Uint64(buf[18:26]))
	h.LastLBA = int64(binary.LittleEndian.Uint64(buf[26:34]))
	h.Rereads.Abs = buf[34]
	h.Rereads.Mul = buf[35]
	h.StrictC2 = buf[36] != 0
	h.C2Enabled = buf[37] != 0
	h.PassCounter = binary.LittleEndian.Uint32(buf[38:42])
	h.Codec = buf[42]
	h.LastARChecksum = binary.LittleEndian.Uint32(buf[43:47])
	h.LastCTDBChecksum = binary.LittleEndian.Uint32(buf[47:51])
	h.Confirmed = buf[51] != 0
	return h, nil
}

func readHeader(r io.Reader) (Header, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, fmt.Errorf("trackbuf: read header: %w", err)
	}
	return decodeHeader(buf)
}
