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
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeTestZIP(t *testing.T, entries map[string][]byte) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry: %v", err)
		}
		if _, err := f.Write(data); err != nil {
			t.Fatalf("write entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	path := filepath.Join(t.TempDir(), "bundle.zip")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write zip: %v", err)
	}
	return path
}

func TestOpen_UnsupportedExtension(t *testing.T) {
	if _, err := Open("bundle.tar"); err == nil {
		t.Fatal("want error for unsupported extension")
	}
}

func TestZIPArchive_ListOpenRoundTrip(t *testing.T) {
	path := writeTestZIP(t, map[string][]byte{
		"AB12CD34.bin": []byte("checksum-payload"),
		"other.txt":    []byte("ignored"),
	})

	arc, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = arc.Close() }()

	entries, err := arc.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(entries))
	}

	found, err := FindEntry(arc, "ab12cd34")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Name != "AB12CD34.bin" {
		t.Fatalf("got %q", found.Name)
	}

	data, err := ReadEntry(arc, found.Name)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "checksum-payload" {
		t.Fatalf("got %q", data)
	}
}

func TestFindEntry_NoMatch(t *testing.T) {
	path := writeTestZIP(t, map[string][]byte{"only.bin": []byte("x")})
	arc, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = arc.Close() }()

	if _, err := FindEntry(arc, "nonexistent"); err == nil {
		t.Fatal("want error for no matching entry")
	}
}
