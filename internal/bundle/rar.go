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

package bundle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nwaples/rardecode/v2"
)

// rarArchive provides access to entries in a RAR-packed checksum bundle.
// RAR requires sequential reading, so List/Open each reopen the stream.
type rarArchive struct {
	file *os.File
	path string
}

func openRAR(path string) (*rarArchive, error) {
	f, err := os.Open(path) //nolint:gosec // bundle path comes from config/flags, not untrusted input
	if err != nil {
		return nil, fmt.Errorf("open rar bundle: %w", err)
	}
	return &rarArchive{file: f, path: path}, nil
}

func (r *rarArchive) List() ([]Entry, error) {
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek rar bundle: %w", err)
	}
	rr, err := rardecode.NewReader(r.file)
	if err != nil {
		return nil, fmt.Errorf("open rar reader: %w", err)
	}
	var out []Entry
	for {
		h, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rar header: %w", err)
		}
		if h.IsDir {
			continue
		}
		out = append(out, Entry{Name: h.Name, Size: h.UnPackedSize})
	}
	return out, nil
}

func (r *rarArchive) Open(internalPath string) (ReadCloser, int64, error) {
	internalPath = filepath.ToSlash(internalPath)
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek rar bundle: %w", err)
	}
	rr, err := rardecode.NewReader(r.file)
	if err != nil {
		return nil, 0, fmt.Errorf("open rar reader: %w", err)
	}
	for {
		h, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read rar header: %w", err)
		}
		if strings.EqualFold(h.Name, internalPath) {
			return &rarEntryReader{r: rr}, h.UnPackedSize, nil
		}
	}
	return nil, 0, EntryNotFoundError{Needle: internalPath}
}

func (r *rarArchive) Close() error {
	return r.file.Close() //nolint:wrapcheck
}

// rarEntryReader adapts rardecode.Reader (no Close method) to ReadCloser.
type rarEntryReader struct {
	r *rardecode.Reader
}

func (e *rarEntryReader) Read(p []byte) (int, error) { return e.r.Read(p) } //nolint:wrapcheck

func (*rarEntryReader) Close() error { return nil }
