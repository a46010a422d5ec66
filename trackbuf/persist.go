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
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/riprip/riprip/internal/atomicfile"
	"github.com/riprip/riprip/internal/binio"
	"github.com/riprip/riprip/sample"
)

// readChunkMap decodes chunks chunkRange entries starting at byte offset
// mapOff in r, using binio's ReaderAt helpers rather than a sequential
// scanner since the chunk map is itself a small fixed-layout struct array.
func readChunkMap(r io.ReaderAt, mapOff int64, chunks int64) ([]chunkRange, error) {
	out := make([]chunkRange, chunks)
	for i := range out {
		entryOff := mapOff + int64(i)*chunkMapEntrySize
		offset, err := binio.Uint64LEAt(r, entryOff)
		if err != nil {
			return nil, fmt.Errorf("trackbuf: read chunk map entry %d: %w", i, err)
		}
		length, err := binio.Uint32LEAt(r, entryOff+8)
		if err != nil {
			return nil, fmt.Errorf("trackbuf: read chunk map entry %d: %w", i, err)
		}
		out[i] = chunkRange{offset: offset, length: length}
	}
	return out, nil
}

// chunkSectors is how many sectors' worth of sample records are
// compressed together, mirroring a CHD hunk: small enough that Open and a
// single best_pcm scan stay responsive, large enough that per-chunk
// codec overhead doesn't dominate.
const chunkSectors = 256

const chunkMapEntrySize = 8 + 4 // offset uint64, length uint32 (no padding)

// ErrCorrupt means the footer checksum did not match the file contents.
var ErrCorrupt = errors.New("trackbuf: corrupt file (checksum mismatch)")

func numChunks(sectorCount int64) int64 {
	n := sectorCount / chunkSectors
	if sectorCount%chunkSectors != 0 {
		n++
	}
	return n
}

// persistReadBack is the buffer size for the CRC32 pass over what's already
// been written to the temp file, so checksumming a large track buffer
// doesn't itself require materializing the whole payload in memory.
const persistReadBack = 64 * 1024

// Persist writes the buffer to its backing path atomically via
// atomicfile.Writer: each chunk is compressed and written out with WriteAt
// as soon as it's ready (only one chunk's compressed bytes are ever held
// in memory at a time), the header and fixed-size tables are filled in
// once every chunk's offset is known, and the whole thing lands via a
// temp-file-plus-rename so a crash or SIGINT mid-write leaves the previous
// generation intact (spec §4.2's persist() and §5.2's crash-recovery
// guarantee).
func (b *Buffer) Persist() error {
	c, err := codecFor(b.header.Codec)
	if err != nil {
		return err
	}

	sectorCount := b.header.sectorCount()
	chunks := numChunks(sectorCount)
	syncBytes := packBits(b.syncOK)

	chunkMapOff := int64(headerSize)
	tableOff := chunkMapOff + chunks*chunkMapEntrySize
	dataOff := tableOff + sectorCount + int64(len(syncBytes))

	w, err := atomicfile.New(b.path)
	if err != nil {
		return fmt.Errorf("trackbuf: persist %s: %w", b.path, err)
	}
	defer w.Abort()

	chunkLen := make([]uint32, chunks)
	runningOff := dataOff
	for i := int64(0); i < chunks; i++ {
		loSector := i * chunkSectors
		hiSector := loSector + chunkSectors
		if hiSector > sectorCount {
			hiSector = sectorCount
		}
		loSample := loSector * samplesPerSector
		hiSample := hiSector * samplesPerSector

		plain := make([]byte, (hiSample-loSample)*recordSize)
		for j := loSample; j < hiSample; j++ {
			off := (j - loSample) * recordSize
			encodeRecord(plain[off:off+recordSize], b.records[j])
		}
		cb, err := c.compress(plain)
		if err != nil {
			return fmt.Errorf("trackbuf: compress chunk %d: %w", i, err)
		}
		if _, err := w.WriteAt(cb, runningOff); err != nil {
			return fmt.Errorf("trackbuf: write chunk %d: %w", i, err)
		}
		chunkLen[i] = uint32(len(cb))
		runningOff += int64(len(cb))
	}
	bodySize := runningOff

	if err := w.Truncate(bodySize + 4); err != nil {
		return fmt.Errorf("trackbuf: resize %s: %w", b.path, err)
	}

	if _, err := w.WriteAt(b.header.encode(), 0); err != nil {
		return fmt.Errorf("trackbuf: write header: %w", err)
	}

	off := dataOff
	for i, length := range chunkLen {
		entryOff := chunkMapOff + int64(i)*chunkMapEntrySize
		if err := binio.PutUint64LEAt(w, entryOff, uint64(off)); err != nil {
			return fmt.Errorf("trackbuf: write chunk map entry %d: %w", i, err)
		}
		if err := binio.PutUint32LEAt(w, entryOff+8, length); err != nil {
			return fmt.Errorf("trackbuf: write chunk map entry %d: %w", i, err)
		}
		off += int64(length)
	}

	if _, err := w.WriteAt(b.c2Count, tableOff); err != nil {
		return fmt.Errorf("trackbuf: write c2 summary: %w", err)
	}
	if _, err := w.WriteAt(syncBytes, tableOff+sectorCount); err != nil {
		return fmt.Errorf("trackbuf: write subchannel sync bits: %w", err)
	}

	sum, err := persistChecksum(w, bodySize)
	if err != nil {
		return fmt.Errorf("trackbuf: checksum %s: %w", b.path, err)
	}
	var footer [4]byte
	binary.LittleEndian.PutUint32(footer[:], sum)
	if _, err := w.WriteAt(footer[:], bodySize); err != nil {
		return fmt.Errorf("trackbuf: write footer: %w", err)
	}

	if err := w.Commit(); err != nil {
		return fmt.Errorf("trackbuf: persist %s: %w", b.path, err)
	}
	b.dirty = false
	return nil
}

// persistChecksum re-reads the first bodySize bytes already written to w
// in persistReadBack-sized pieces and folds them through crc32.ChecksumIEEE,
// matching Open's expectation of a checksum over the whole body without
// requiring that body ever exist as one contiguous buffer.
func persistChecksum(w *atomicfile.Writer, bodySize int64) (uint32, error) {
	h := crc32.NewIEEE()
	buf := make([]byte, persistReadBack)
	for off := int64(0); off < bodySize; {
		n := int64(len(buf))
		if off+n > bodySize {
			n = bodySize - off
		}
		if err := binio.ReadAt(w, off, buf[:n]); err != nil {
			return 0, err
		}
		h.Write(buf[:n])
		off += n
	}
	return h.Sum32(), nil
}

func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, v := range bits {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func unpackBits(packed []byte, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = packed[i/8]&(1<<uint(i%8)) != 0
	}
	return out
}

// Open reads an existing buffer from path and validates that its header
// identity (drive offset, LBA range) matches what the caller expects.
// On mismatch it returns ErrIdentityMismatch rather than silently
// discarding or merging state; the caller's only recourse per spec is a
// hard reset (--no-resume), which New supplies a fresh buffer for.
func Open(path string, wantDriveOffset, wantFirstLBA, wantLastLBA int64) (*Buffer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trackbuf: open %s: %w", path, err)
	}
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, path)
	}
	body, footer := raw[:len(raw)-4], raw[len(raw)-4:]
	wantSum := binary.LittleEndian.Uint32(footer)
	if crc32.ChecksumIEEE(body) != wantSum {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, path)
	}

	h, err := decodeHeader(body)
	if err != nil {
		return nil, err
	}
	if h.DriveOffset != wantDriveOffset || h.FirstLBA != wantFirstLBA || h.LastLBA != wantLastLBA {
		return nil, ErrIdentityMismatch
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

	records := make([]sample.Sample, sectorCount*samplesPerSector)
	for i, cr := range chunkMap {
		if int64(cr.offset)+int64(cr.length) > int64(len(body)) {
			return nil, fmt.Errorf("%w: chunk %d out of bounds", ErrCorrupt, i)
		}
		plain, err := c.decompress(body[cr.offset : uint64(cr.offset)+uint64(cr.length)])
		if err != nil {
			return nil, fmt.Errorf("trackbuf: decompress chunk %d: %w", i, err)
		}
		loSample := int64(i) * chunkSectors * samplesPerSector
		n := int64(len(plain)) / recordSize
		for j := int64(0); j < n; j++ {
			off := j * recordSize
			records[loSample+j] = decodeRecord(plain[off : off+recordSize])
		}
	}

	return &Buffer{
		path:    path,
		header:  h,
		records: records,
		c2Count: c2Count,
		syncOK:  unpackBits(syncBytes, int(sectorCount)),
	}, nil
}
