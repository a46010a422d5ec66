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

// Package riprip defines the collaborator interfaces, configuration, and
// error taxonomy shared by every component of an iterative, recovery-
// oriented audio CD ripper (spec §6): the Drive that performs raw sector
// transport, the TOC that supplies track geometry and disc identity, and
// the HTTP fetcher used to reach the AccurateRip and CTDB checksum
// databases. The rip state machine itself lives in package rip; this
// package only describes the boundary it runs against.
package riprip

import "github.com/riprip/riprip/ingest"

// Drive is the narrow transport capability the rip controller depends on.
// Production code backs it with direct SCSI/MMC commands against an
// optical drive; tests substitute a scripted fake that replays canned
// sector responses (spec §9's "polymorphism over Drive/Http/Toc").
type Drive interface {
	// Open prepares the drive at path for reads. path may be a block
	// device (e.g. /dev/sr0) or, for test fixtures, a regular file holding
	// a raw disc image.
	Open(path string) error
	// ReadSector reads one LBA, optionally requesting C2 error pointers
	// and/or Q-subchannel positioning data. A transport failure (timeout,
	// check condition, short read) is reported via Sector.TransportOK
	// rather than a returned error, so the caller can fold it into the
	// same ingestion path as a C2-flagged read (spec §4.4).
	ReadSector(lba int64, wantC2, wantSubchannel bool) (ingest.Sector, error)
	// CacheBust issues a dummy read near lba to defeat any on-drive
	// read-ahead cache before the first real read of a pass (spec §4.5).
	CacheBust(nearLBA int64) error
	// Close releases the drive handle.
	Close() error
}

// Track describes one track's geometry as reported by the TOC.
type Track struct {
	Number   int
	FirstLBA int64
	LastLBA  int64
}

// TOC supplies disc and track geometry, independent of how it was
// acquired (a real drive's table of contents, or a cue sheet for test
// fixtures).
type TOC interface {
	// Tracks returns every audio track on the disc, in track-number order.
	Tracks() []Track
	// HTOA reports whether a Hidden Track One Audio pregap exists ahead of
	// track 1, and its first LBA if so.
	HTOA() (present bool, firstLBA int64)
	// DiscIDs returns the disc identifier strings used to key checksum
	// database lookups (AccurateRip and CTDB each key differently, so both
	// are returned keyed by the database name).
	DiscIDs() map[string]string
}
