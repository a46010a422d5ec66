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
	"archive/zip"
	"fmt"
	"path/filepath"
	"strings"
)

// zipArchive provides access to entries in a ZIP-packed checksum bundle.
type zipArchive struct {
	reader *zip.ReadCloser
	path   string
}

func openZIP(path string) (*zipArchive, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip bundle: %w", err)
	}
	return &zipArchive{reader: r, path: path}, nil
}

func (z *zipArchive) List() ([]Entry, error) {
	out := make([]Entry, 0, len(z.reader.File))
	for _, f := range z.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		out = append(out, Entry{Name: f.Name, Size: int64(f.UncompressedSize64)}) //nolint:gosec // bundle entries are small
	}
	return out, nil
}

func (z *zipArchive) Open(internalPath string) (ReadCloser, int64, error) {
	internalPath = filepath.ToSlash(internalPath)
	for _, f := range z.reader.File {
		if strings.EqualFold(f.Name, internalPath) {
			rc, err := f.Open()
			if err != nil {
				return nil, 0, fmt.Errorf("open zip entry: %w", err)
			}
			return rc, int64(f.UncompressedSize64), nil //nolint:gosec // bundle entries are small
		}
	}
	return nil, 0, EntryNotFoundError{Needle: internalPath}
}

func (z *zipArchive) Close() error {
	return z.reader.Close() //nolint:wrapcheck
}
