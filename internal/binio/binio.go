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

// Package binio provides little-endian struct (de)serialization helpers for
// the track buffer persistence format (spec §4.2), generalized from the
// read-only ROM/disc-image helpers the rest of this codebase's lineage
// uses, since track buffers are written as often as they're read.
package binio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReadAt reads len(buf) bytes from r at offset, wrapping short reads with
// context.
func ReadAt(r io.ReaderAt, offset int64, buf []byte) error {
	if _, err := io.ReadFull(io.NewSectionReader(r, offset, int64(len(buf))), buf); err != nil {
		return fmt.Errorf("read at offset %d: %w", offset, err)
	}
	return nil
}

// WriteAt writes buf to w at offset, wrapping short writes with context.
func WriteAt(w io.WriterAt, offset int64, buf []byte) error {
	n, err := w.WriteAt(buf, offset)
	if err != nil {
		return fmt.Errorf("write at offset %d: %w", offset, err)
	}
	if n != len(buf) {
		return fmt.Errorf("short write at offset %d: wrote %d of %d bytes", offset, n, len(buf))
	}
	return nil
}

// Uint32LEAt reads a little-endian uint32 from r at offset.
func Uint32LEAt(r io.ReaderAt, offset int64) (uint32, error) {
	var buf [4]byte
	if err := ReadAt(r, offset, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// Uint64LEAt reads a little-endian uint64 from r at offset.
func Uint64LEAt(r io.ReaderAt, offset int64) (uint64, error) {
	var buf [8]byte
	if err := ReadAt(r, offset, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Uint16LEAt reads a little-endian uint16 from r at offset.
func Uint16LEAt(r io.ReaderAt, offset int64) (uint16, error) {
	var buf [2]byte
	if err := ReadAt(r, offset, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// PutUint32LEAt writes v as little-endian to w at offset.
func PutUint32LEAt(w io.WriterAt, offset int64, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return WriteAt(w, offset, buf[:])
}

// PutUint64LEAt writes v as little-endian to w at offset.
func PutUint64LEAt(w io.WriterAt, offset int64, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return WriteAt(w, offset, buf[:])
}

// PutUint16LEAt writes v as little-endian to w at offset.
func PutUint16LEAt(w io.WriterAt, offset int64, v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return WriteAt(w, offset, buf[:])
}
