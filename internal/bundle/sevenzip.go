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
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

// sevenZipArchive provides access to entries in a 7z-packed checksum bundle.
type sevenZipArchive struct {
	reader *sevenzip.ReadCloser
	path   string
}

func openSevenZip(path string) (*sevenZipArchive, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open 7z bundle: %w", err)
	}
	return &sevenZipArchive{reader: r, path: path}, nil
}

func (s *sevenZipArchive) List() ([]Entry, error) {
	out := make([]Entry, 0, len(s.reader.File))
	for _, f := range s.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		out = append(out, Entry{Name: f.Name, Size: int64(f.UncompressedSize)}) //nolint:gosec
	}
	return out, nil
}

func (s *sevenZipArchive) Open(internalPath string) (ReadCloser, int64, error) {
	internalPath = filepath.ToSlash(internalPath)
	for _, f := range s.reader.File {
		if strings.EqualFold(f.Name, internalPath) {
			rc, err := f.Open()
			if err != nil {
				return nil, 0, fmt.Errorf("open 7z entry: %w", err)
			}
			return rc, int64(f.UncompressedSize), nil //nolint:gosec
		}
	}
	return nil, 0, EntryNotFoundError{Needle: internalPath}
}

func (s *sevenZipArchive) Close() error {
	return s.reader.Close() //nolint:wrapcheck
}
