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

package verify

import (
	"fmt"
	"strings"

	"github.com/riprip/riprip/internal/bundle"
)

// Bundle holds the parsed reference checksums pulled from either a live
// HTTP fetch or an offline archive, for one disc ID.
type Bundle struct {
	AR   []ARSubmission
	CTDB []CTDBEntry
}

// ImportBundle opens a .zip/.7z/.rar archive of pre-downloaded AccurateRip
// and/or CTDB data (some users keep these for offline verification, or a
// community mirror only distributes them packaged this way) and extracts
// the entries matching discID (spec §4.6).
func ImportBundle(path, discID string) (*Bundle, error) {
	arc, err := bundle.Open(path)
	if err != nil {
		return nil, fmt.Errorf("verify: open bundle %s: %w", path, err)
	}
	defer func() { _ = arc.Close() }()

	var out Bundle

	if entry, err := bundle.FindEntry(arc, discID+".bin"); err == nil {
		data, err := bundle.ReadEntry(arc, entry.Name)
		if err != nil {
			return nil, fmt.Errorf("verify: read AccurateRip entry from bundle: %w", err)
		}
		subs, err := ParseARBin(data)
		if err != nil {
			return nil, err
		}
		out.AR = subs
	}

	if entry, err := findCTDBEntry(arc, discID); err == nil {
		data, err := bundle.ReadEntry(arc, entry.Name)
		if err != nil {
			return nil, fmt.Errorf("verify: read CTDB entry from bundle: %w", err)
		}
		entries, err := ParseCTDBXML(data)
		if err != nil {
			return nil, err
		}
		out.CTDB = entries
	}

	if len(out.AR) == 0 && len(out.CTDB) == 0 {
		return nil, fmt.Errorf("verify: bundle %s has no entry for disc %s", path, discID)
	}
	return &out, nil
}

// findCTDBEntry looks for a CTDB entry two ways: a disc-ID-named .xml
// (most community mirrors) or any .xml entry, since some bundles only ever
// hold one disc per archive.
func findCTDBEntry(arc bundle.Archive, discID string) (bundle.Entry, error) {
	if e, err := bundle.FindEntry(arc, discID+".xml"); err == nil {
		return e, nil
	}
	entries, err := arc.List()
	if err != nil {
		return bundle.Entry{}, fmt.Errorf("verify: list bundle entries: %w", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(strings.ToLower(e.Name), ".xml") {
			return e, nil
		}
	}
	return bundle.Entry{}, fmt.Errorf("verify: no CTDB entry found for disc %s", discID)
}
