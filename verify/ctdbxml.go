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
	"encoding/xml"
	"fmt"
	"strconv"
)

// ctdbDoc mirrors the subset of a CUETools DB response this verifier
// needs: one <entry> per submitted pressing, each listing its tracks'
// CRC32 (hex) and a confidence count.
type ctdbDoc struct {
	XMLName xml.Name     `xml:"ctdb"`
	Entries []ctdbEntryX `xml:"entry"`
}

type ctdbEntryX struct {
	Confidence int          `xml:"confidence,attr"`
	Tracks     []ctdbTrackX `xml:"track"`
}

type ctdbTrackX struct {
	Num   int    `xml:"num,attr"`
	CRC32 string `xml:"crc32,attr"`
}

// CTDBEntry is one pressing's CTDB confidence and per-track CRC32 values.
type CTDBEntry struct {
	Confidence int
	TrackCRC32 map[int]uint32
}

// ParseCTDBXML decodes a CTDB response body into its constituent entries.
func ParseCTDBXML(data []byte) ([]CTDBEntry, error) {
	var doc ctdbDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("verify: parse ctdb xml: %w", err)
	}
	out := make([]CTDBEntry, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		entry := CTDBEntry{Confidence: e.Confidence, TrackCRC32: make(map[int]uint32, len(e.Tracks))}
		for _, tr := range e.Tracks {
			crc, err := strconv.ParseUint(tr.CRC32, 16, 32)
			if err != nil {
				return nil, fmt.Errorf("verify: parse ctdb track %d crc32 %q: %w", tr.Num, tr.CRC32, err)
			}
			entry.TrackCRC32[tr.Num] = uint32(crc)
		}
		out = append(out, entry)
	}
	return out, nil
}
