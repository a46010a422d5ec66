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

package binio

import (
	"bytes"
	"io"
	"testing"
)

// sliceReaderWriterAt adapts a []byte to io.ReaderAt/io.WriterAt for tests,
// growing on WriteAt the way a real file would.
type sliceReaderWriterAt struct{ buf []byte }

func (s *sliceReaderWriterAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(s.buf)) {
		return 0, io.EOF
	}
	n := copy(p, s.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *sliceReaderWriterAt) WriteAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	return copy(s.buf[off:], p), nil
}

func TestUint16LERoundTrip(t *testing.T) {
	rw := &sliceReaderWriterAt{buf: make([]byte, 16)}
	if err := PutUint16LEAt(rw, 3, 0xBEEF); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := Uint16LEAt(rw, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != 0xBEEF {
		t.Fatalf("got %#x want %#x", got, 0xBEEF)
	}
}

func TestUint32LERoundTrip(t *testing.T) {
	rw := &sliceReaderWriterAt{buf: make([]byte, 16)}
	if err := PutUint32LEAt(rw, 0, 0xDEADBEEF); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := Uint32LEAt(rw, 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != 0xDEADBEEF {
		t.Fatalf("got %#x want %#x", got, 0xDEADBEEF)
	}
	// Little-endian: low byte first.
	if rw.buf[0] != 0xEF || rw.buf[3] != 0xDE {
		t.Fatalf("unexpected byte order: % x", rw.buf[:4])
	}
}

func TestUint64LERoundTrip(t *testing.T) {
	rw := &sliceReaderWriterAt{buf: make([]byte, 16)}
	if err := PutUint64LEAt(rw, 8, 0x0123456789ABCDEF); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := Uint64LEAt(rw, 8)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != 0x0123456789ABCDEF {
		t.Fatalf("got %#x want %#x", got, uint64(0x0123456789ABCDEF))
	}
}

func TestReadAt_ShortSourceErrors(t *testing.T) {
	rw := &sliceReaderWriterAt{buf: make([]byte, 4)}
	var buf [8]byte
	if err := ReadAt(rw, 0, buf[:]); err == nil {
		t.Fatal("want error reading past end of source")
	}
}

func TestWriteAt_PreservesSurroundingBytes(t *testing.T) {
	rw := &sliceReaderWriterAt{buf: bytes.Repeat([]byte{0xFF}, 16)}
	if err := PutUint32LEAt(rw, 4, 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	for i, b := range rw.buf {
		if i >= 4 && i < 8 {
			continue
		}
		if b != 0xFF {
			t.Fatalf("byte %d clobbered: %#x", i, b)
		}
	}
}
