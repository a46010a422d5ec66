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
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/riprip/riprip/internal/atomicfile"
)

// HTTPGet fetches a reference checksum payload over HTTP. Swapped out in
// tests; the controller wires the real client.
type HTTPGet func(ctx context.Context, url string) ([]byte, error)

// DefaultHTTPGet performs a plain GET and returns the response body.
func DefaultHTTPGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("verify: build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify: fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verify: fetch %s: status %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("verify: read response body from %s: %w", url, err)
	}
	return body, nil
}

// Cache stores fetched checksum payloads under cacheDir, zstd-compressed,
// so a second run against the same disc never re-fetches (spec §4.6's
// "once per program run, caching to disk").
type Cache struct {
	dir string
}

// NewCache returns a Cache rooted at dir, creating it if necessary.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // cache dir is not security-sensitive
		return nil, fmt.Errorf("verify: create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(discID, kind string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s.%s.zst", discID, kind))
}

// Load returns the cached, decompressed payload for discID/kind, or
// (nil, false, nil) if nothing is cached yet.
func (c *Cache) Load(discID, kind string) ([]byte, bool, error) {
	path := c.path(discID, kind)
	compressed, err := os.ReadFile(path) //nolint:gosec // path is built from our own cache dir + kind
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("verify: read cache %s: %w", path, err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, false, fmt.Errorf("verify: create zstd reader: %w", err)
	}
	defer dec.Close()
	data, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("verify: decompress cache %s: %w", path, err)
	}
	return data, true, nil
}

// Store compresses and durably writes payload for discID/kind.
func (c *Cache) Store(discID, kind string, payload []byte) error {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("verify: create zstd writer: %w", err)
	}
	compressed := enc.EncodeAll(payload, nil)
	_ = enc.Close()
	if err := atomicfile.WriteFile(c.path(discID, kind), compressed, 0o644); err != nil {
		return fmt.Errorf("verify: write cache: %w", err)
	}
	return nil
}

// FetchOrCache returns the cached payload for discID/kind if present,
// otherwise fetches it via get, caches it, and returns it. Fetches happen
// at most once per run per (discID, kind) pair since the caller only calls
// this once and the cache makes subsequent runs hit disk instead.
func (c *Cache) FetchOrCache(ctx context.Context, get HTTPGet, url, discID, kind string) ([]byte, error) {
	if data, ok, err := c.Load(discID, kind); err != nil {
		return nil, err
	} else if ok {
		return data, nil
	}
	data, err := get(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := c.Store(discID, kind, data); err != nil {
		return nil, err
	}
	return data, nil
}
