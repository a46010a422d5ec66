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
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz/lzma"
)

// codec compresses and decompresses one chunk's worth of sample records.
// Unlike the read-only CHD hunk codecs this package's teacher lineage uses,
// a track buffer is rewritten every pass, so both directions are needed.
type codec interface {
	compress(plain []byte) ([]byte, error)
	decompress(compressed []byte) ([]byte, error)
}

func codecFor(tag uint8) (codec, error) {
	switch tag {
	case CodecNone:
		return noneCodec{}, nil
	case CodecZstd:
		return zstdCodec{}, nil
	case CodecLZMA:
		return lzmaCodec{}, nil
	default:
		return nil, fmt.Errorf("trackbuf: unsupported chunk codec %d", tag)
	}
}

type noneCodec struct{}

func (noneCodec) compress(plain []byte) ([]byte, error)      { return plain, nil }
func (noneCodec) decompress(compressed []byte) ([]byte, error) { return compressed, nil }

type zstdCodec struct{}

func (zstdCodec) compress(plain []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd init encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(plain, make([]byte, 0, len(plain))), nil
}

func (zstdCodec) decompress(compressed []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd init decoder: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

type lzmaCodec struct{}

func (lzmaCodec) compress(plain []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("lzma init writer: %w", err)
	}
	if _, err := w.Write(plain); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("lzma write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lzma close: %w", err)
	}
	return buf.Bytes(), nil
}

func (lzmaCodec) decompress(compressed []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("lzma init reader: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lzma decode: %w", err)
	}
	return out, nil
}
