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
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/riprip/riprip/internal/binio"
	"github.com/riprip/riprip/sample"
)

// Peeker reads a buffer's stats and individual samples without
// materializing the whole sample array, for `--status` (spec §6.2):
// inspecting a large, mostly-Confirmed, compressed buffer between runs
// shouldn't require re-inflating every chunk.
type Peeker struct {
	path     string
	header   Header
	c2Count  []byte
	syncOK   []bool
	chunkMap []chunkRange
	codec    codec
	body     []byte
	cache    *lru.Cache[int64, []sample.Sample]
}

type chunkRange struct {
	offset uint64
	length uint32
}

// cacheChunks bounds how many decompressed chunks Peek keeps resident;
// a full-disc scan still only ever holds a handful at once.
const cacheChunks = 8

// OpenPeek opens a buffer read-only, validating only its checksum footer
// (not drive-offset/LBA identity, since a status query doesn't mutate
// anything the identity check protects).
func OpenPeek(path string) (*Peeker, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trackbuf: open %s: %w", path, err)
	}
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, path)
	}
	body, footer := raw[:len(raw)-4], raw[len(raw)-4:]
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(footer) {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, path)
	}

	h, err := decodeHeader(body)
	if err != nil {
		return nil, err
	}
	c, err := codecFor(h.Codec)
	if err != nil {
		return nil, err
	}

	sectorCount := h.sectorCount()
	chunks := numChunks(sectorCount)

	r := bytes.NewReader(body)
	chunkMap, err := readChunkMap(r, int64(headerSize), chunks)
	if err != nil {
		return nil, err
	}

	tableOff := int64(headerSize) + chunks*chunkMapEntrySize
	c2Count := make([]byte, sectorCount)
	if err := binio.ReadAt(r, tableOff, c2Count); err != nil {
		return nil, fmt.Errorf("trackbuf: read c2 summary: %w", err)
	}
	syncBytes := make([]byte, (sectorCount+7)/8)
	if err := binio.ReadAt(r, tableOff+sectorCount, syncBytes); err != nil {
		return nil, fmt.Errorf("trackbuf: read subchannel sync bits: %w", err)
	}

	cache, err := lru.New[int64, []sample.Sample](cacheChunks)
	if err != nil {
		return nil, fmt.Errorf("trackbuf: init chunk cache: %w", err)
	}

	return &Peeker{
		path:     path,
		header:   h,
		c2Count:  c2Count,
		syncOK:   unpackBits(syncBytes, int(sectorCount)),
		chunkMap: chunkMap,
		codec:    c,
		body:     body,
		cache:    cache,
	}, nil
}

// Header returns the buffer's persistent metadata.
func (p *Peeker) Header() Header { return p.header }

func (p *Peeker) chunk(idx int64) ([]sample.Sample, error) {
	if cached, ok := p.cache.Get(idx); ok {
		return cached, nil
	}
	cr := p.chunkMap[idx]
	plain, err := p.codec.decompress(p.body[cr.offset : uint64(cr.offset)+uint64(cr.length)])
	if err != nil {
		return nil, fmt.Errorf("trackbuf: decompress chunk %d: %w", idx, err)
	}
	n := int64(len(plain)) / recordSize
	out := make([]sample.Sample, n)
	for j := int64(0); j < n; j++ {
		off := j * recordSize
		out[j] = decodeRecord(plain[off : off+recordSize])
	}
	p.cache.Add(idx, out)
	return out, nil
}

// Sample returns the decoded sample at absolute index sampleIdx,
// decompressing (and caching) only the chunk it lives in.
func (p *Peeker) Sample(sampleIdx int64) (sample.Sample, error) {
	chunkSamples := int64(chunkSectors) * samplesPerSector
	idx := sampleIdx / chunkSamples
	if idx < 0 || idx >= int64(len(p.chunkMap)) {
		return sample.Sample{}, fmt.Errorf("trackbuf: sample index %d out of range", sampleIdx)
	}
	records, err := p.chunk(idx)
	if err != nil {
		return sample.Sample{}, err
	}
	off := sampleIdx % chunkSamples
	if off >= int64(len(records)) {
		return sample.Sample{}, fmt.Errorf("trackbuf: sample index %d out of range", sampleIdx)
	}
	return records[off], nil
}

// Stats scans every chunk (decompressing and caching each once) and
// returns the same per-status counts Buffer.Stats would, without ever
// holding the full record array in memory at once.
func (p *Peeker) Stats() (Stats, error) {
	var s Stats
	for idx := range p.chunkMap {
		records, err := p.chunk(int64(idx))
		if err != nil {
			return Stats{}, err
		}
		for _, rec := range records {
			switch rec.Status {
			case sample.Empty:
				s.Empty++
			case sample.Bad:
				s.Bad++
			case sample.Maybe:
				s.Maybe++
			case sample.Likely:
				s.Likely++
			}
		}
	}
	return s, nil
}
