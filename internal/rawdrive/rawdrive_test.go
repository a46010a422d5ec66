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

package rawdrive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/riprip/riprip/ingest"
)

func writeImage(t *testing.T, sectors int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "disc.bin")
	buf := make([]byte, sectors*ingest.SectorBytes)
	for i := range buf {
		buf[i] = byte(i)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write fixture image: %v", err)
	}
	return path
}

func TestReadSector_ReturnsRequestedSectorBytes(t *testing.T) {
	path := writeImage(t, 3)
	d := New()
	if err := d.Open(path); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = d.Close() }()

	sec, err := d.ReadSector(1, true, true)
	if err != nil {
		t.Fatalf("ReadSector() error = %v", err)
	}
	if !sec.TransportOK {
		t.Fatal("TransportOK = false, want true for an in-bounds sector")
	}
	if sec.LBA != 1 {
		t.Errorf("LBA = %d, want 1", sec.LBA)
	}
	if sec.PCM[0] != byte(ingest.SectorBytes) {
		t.Errorf("PCM[0] = %d, want %d", sec.PCM[0], byte(ingest.SectorBytes))
	}
	if sec.C2 != nil {
		t.Error("C2 non-nil, want nil: image files carry no C2 data")
	}
	if sec.SubchannelQ != nil {
		t.Error("SubchannelQ non-nil, want nil: image files carry no subchannel data")
	}
}

func TestReadSector_PastEndOfFileIsShortReadNotError(t *testing.T) {
	path := writeImage(t, 1)
	d := New()
	if err := d.Open(path); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = d.Close() }()

	sec, err := d.ReadSector(5, false, false)
	if err != nil {
		t.Fatalf("ReadSector() error = %v, want nil (short read reported via TransportOK)", err)
	}
	if sec.TransportOK {
		t.Error("TransportOK = true, want false for a read past end of file")
	}
}

func TestReadSector_NegativeLBAIsLeadIn(t *testing.T) {
	path := writeImage(t, 1)
	d := New()
	if err := d.Open(path); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = d.Close() }()

	sec, err := d.ReadSector(-10, false, false)
	if err != nil {
		t.Fatalf("ReadSector() error = %v", err)
	}
	if sec.TransportOK {
		t.Error("TransportOK = true, want false for a negative (lead-in/HTOA-region) LBA")
	}
}

func TestCacheBust_NoOp(t *testing.T) {
	d := New()
	if err := d.CacheBust(0); err != nil {
		t.Fatalf("CacheBust() error = %v, want nil", err)
	}
}

func TestClose_BeforeOpenIsNoOp(t *testing.T) {
	d := New()
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v, want nil for an unopened Drive", err)
	}
}
