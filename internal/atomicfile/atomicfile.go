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

// Package atomicfile writes files via a temp-file-then-rename so that a
// crash or SIGINT mid-write leaves either the previous file or the new one
// intact, never a partial one. Track buffers, WAV/PCM/cue exports and
// checksum caches are written through this; the optional FLAC archive
// (export.WriteFLACArchive) is not, and is created in place.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".riprip.*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	return nil
}

// Writer lets a caller stream writes into the temp file (for large track
// buffers, avoiding building the whole payload in memory) and commit at
// the end with Commit, or discard with Abort.
type Writer struct {
	f       *os.File
	tmpPath string
	target  string
	done    bool
}

// New opens a new atomic writer targeting path.
func New(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".riprip.*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &Writer{f: f, tmpPath: f.Name(), target: path}, nil
}

// Write implements io.Writer against the temp file.
func (w *Writer) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// WriteAt implements io.WriterAt against the temp file, for fixed-layout
// formats like the track buffer that write out of order.
func (w *Writer) WriteAt(p []byte, off int64) (int, error) {
	return w.f.WriteAt(p, off)
}

// ReadAt implements io.ReaderAt against the temp file, for a caller that
// needs to stream back what it has written so far (e.g. to checksum it)
// without holding the whole payload in memory.
func (w *Writer) ReadAt(p []byte, off int64) (int, error) {
	return w.f.ReadAt(p, off)
}

// Truncate resizes the temp file, e.g. to pre-allocate a track buffer's
// full length before filling it in with WriteAt.
func (w *Writer) Truncate(size int64) error {
	return w.f.Truncate(size)
}

// Commit syncs, closes, and atomically renames the temp file over the
// target path.
func (w *Writer) Commit() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		_ = os.Remove(w.tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := w.f.Close(); err != nil {
		_ = os.Remove(w.tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(w.tmpPath, w.target); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", w.target, err)
	}
	return nil
}

// Abort discards the temp file without touching the target path. Safe to
// call after Commit (no-op) or multiple times.
func (w *Writer) Abort() {
	if w.done {
		return
	}
	w.done = true
	_ = w.f.Close()
	_ = os.Remove(w.tmpPath)
}
