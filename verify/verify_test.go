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
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func encodeARBin(t *testing.T, subs []ARSubmission) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, sub := range subs {
		var hdr [13]byte
		hdr[0] = byte(len(sub.Tracks))
		binary.LittleEndian.PutUint32(hdr[1:], sub.DiscID1)
		binary.LittleEndian.PutUint32(hdr[5:], sub.DiscID2)
		binary.LittleEndian.PutUint32(hdr[9:], sub.CDDBID)
		buf.Write(hdr[:])
		for _, tr := range sub.Tracks {
			var rec [9]byte
			rec[0] = tr.Confidence
			binary.LittleEndian.PutUint32(rec[1:], tr.CRC32V1)
			binary.LittleEndian.PutUint32(rec[5:], tr.CRC32V2)
			buf.Write(rec[:])
		}
	}
	return buf.Bytes()
}

func TestParseARBin_RoundTrip(t *testing.T) {
	want := []ARSubmission{
		{DiscID1: 1, DiscID2: 2, CDDBID: 3, Tracks: []ARTrackEntry{
			{Confidence: 9, CRC32V1: 0xAAAA, CRC32V2: 0xBBBB},
			{Confidence: 2, CRC32V1: 0xCCCC, CRC32V2: 0xDDDD},
		}},
		{DiscID1: 4, DiscID2: 5, CDDBID: 6, Tracks: []ARTrackEntry{
			{Confidence: 1, CRC32V1: 0xEEEE, CRC32V2: 0xFFFF},
		}},
	}
	got, err := ParseARBin(encodeARBin(t, want))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d submissions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].DiscID1 != want[i].DiscID1 || got[i].DiscID2 != want[i].DiscID2 || got[i].CDDBID != want[i].CDDBID {
			t.Fatalf("submission %d header mismatch: got %+v want %+v", i, got[i], want[i])
		}
		if len(got[i].Tracks) != len(want[i].Tracks) {
			t.Fatalf("submission %d track count mismatch: got %d want %d", i, len(got[i].Tracks), len(want[i].Tracks))
		}
		for j := range want[i].Tracks {
			if got[i].Tracks[j] != want[i].Tracks[j] {
				t.Fatalf("submission %d track %d mismatch: got %+v want %+v", i, j, got[i].Tracks[j], want[i].Tracks[j])
			}
		}
	}
}

func TestParseARBin_TruncatedErrors(t *testing.T) {
	if _, err := ParseARBin([]byte{1, 2, 3}); err == nil {
		t.Fatal("want error on truncated header")
	}
}

func TestParseCTDBXML(t *testing.T) {
	doc := []byte(`<ctdb><entry confidence="7"><track num="1" crc32="DEADBEEF"/><track num="2" crc32="0000002A"/></entry></ctdb>`)
	entries, err := ParseCTDBXML(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 1 || entries[0].Confidence != 7 {
		t.Fatalf("got %+v", entries)
	}
	if entries[0].TrackCRC32[1] != 0xDEADBEEF || entries[0].TrackCRC32[2] != 0x2A {
		t.Fatalf("got %+v", entries[0].TrackCRC32)
	}
}

func TestEvaluate_MatchAboveConfidenceConfirms(t *testing.T) {
	computed := Checksums{AccurateRipV1: 0x1234, CTDBCrc32: 0x9999}
	b := &Bundle{
		AR: []ARSubmission{{Tracks: []ARTrackEntry{{Confidence: 5, CRC32V1: 0x1234}}}},
	}
	res := Evaluate(computed, b, 0, 3)
	if !res.Matched || res.Source != "accuraterip" || res.Confidence != 5 {
		t.Fatalf("got %+v", res)
	}
}

func TestEvaluate_BelowConfidenceThresholdRejects(t *testing.T) {
	computed := Checksums{AccurateRipV1: 0x1234}
	b := &Bundle{AR: []ARSubmission{{Tracks: []ARTrackEntry{{Confidence: 1, CRC32V1: 0x1234}}}}}
	res := Evaluate(computed, b, 0, 3)
	if res.Matched {
		t.Fatalf("want no match below threshold, got %+v", res)
	}
}

func TestEvaluate_NoChecksumMatchRejects(t *testing.T) {
	computed := Checksums{AccurateRipV1: 0x1234}
	b := &Bundle{AR: []ARSubmission{{Tracks: []ARTrackEntry{{Confidence: 9, CRC32V1: 0x9999}}}}}
	res := Evaluate(computed, b, 0, 1)
	if res.Matched {
		t.Fatal("want no match when crc differs")
	}
}

func TestEvaluate_CTDBUsesOneBasedTrackNumbers(t *testing.T) {
	computed := Checksums{CTDBCrc32: 0xABCD}
	b := &Bundle{CTDB: []CTDBEntry{{Confidence: 4, TrackCRC32: map[int]uint32{1: 0xABCD}}}}
	res := Evaluate(computed, b, 0, 1)
	if !res.Matched || res.Source != "ctdb" {
		t.Fatalf("got %+v", res)
	}
}

func writeZIPBundle(t *testing.T, name string, data []byte) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create(name)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	path := filepath.Join(t.TempDir(), "bundle.zip")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestImportBundle_FindsMatchingARBin(t *testing.T) {
	subs := []ARSubmission{{Tracks: []ARTrackEntry{{Confidence: 3, CRC32V1: 0x42}}}}
	path := writeZIPBundle(t, "ABCD1234.bin", encodeARBin(t, subs))

	b, err := ImportBundle(path, "ABCD1234")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(b.AR) != 1 || b.AR[0].Tracks[0].CRC32V1 != 0x42 {
		t.Fatalf("got %+v", b.AR)
	}
}

func TestImportBundle_NoMatchingEntryErrors(t *testing.T) {
	path := writeZIPBundle(t, "UNRELATED.bin", []byte{0})
	if _, err := ImportBundle(path, "ABCD1234"); err == nil {
		t.Fatal("want error when bundle has no entry for this disc")
	}
}

func TestCache_StoreThenLoadRoundTrip(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	payload := []byte("reference checksum payload")
	if err := c.Store("DISC1", "ar", payload); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, ok, err := c.Load("DISC1", "ar")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if string(got) != string(payload) {
		t.Fatalf("got %q want %q", got, payload)
	}
}

func TestCache_FetchOrCache_OnlyFetchesOnce(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	calls := 0
	get := func(ctx context.Context, url string) ([]byte, error) {
		calls++
		return []byte("fetched"), nil
	}
	for i := 0; i < 3; i++ {
		data, err := c.FetchOrCache(context.Background(), get, "http://example.invalid/disc", "DISC2", "ar")
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if string(data) != "fetched" {
			t.Fatalf("got %q", data)
		}
	}
	if calls != 1 {
		t.Fatalf("want exactly 1 network fetch across repeated calls, got %d", calls)
	}
}
