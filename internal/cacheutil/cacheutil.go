// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
)

// Entry represents a cached artifact on disk.
// Key is the clear-text key; EncodedKey is the hashed filename.
type Entry struct {
	Key        string
	EncodedKey string
	Path       string
	Data       []byte
}

// Dir resolves the base cache directory.
// Precedence:
//  1. RANDUSER_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/randuser
//
// Returns ("", false) if a base cannot be resolved (treat as disabled).
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("RANDUSER_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "randuser"), true
	}
	return "", false
}

// Enabled returns true unless RANDUSER_CACHE explicitly disables it ("0"/"false").
func Enabled() bool {
	enabled, _ := os.LookupEnv("RANDUSER_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// EnsureBaseDir creates the base cache directory if caching is enabled and
// a base path can be resolved. Returns the path, whether it is usable, and an
// error if creation failed.
func EnsureBaseDir() (string, bool, error) {
	if !Enabled() {
		return "", false, nil
	}
	base, ok := Dir()
	if !ok {
		return "", false, nil
	}
	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create cache base directory: %w", err)
	}
	return base, true, nil
}

// Store is a disk cache rooted at Base and scoped beneath Subdirs. The zero
// Store is disabled: reads miss and writes are dropped.
type Store struct {
	Base    string
	Subdirs []string
}

// NewStore returns a Store under the resolved base directory, or a disabled
// Store when caching is turned off or no base can be found.
func NewStore(subdirs ...string) *Store {
	if !Enabled() {
		return &Store{}
	}
	base, ok := Dir()
	if !ok {
		return &Store{}
	}
	return &Store{Base: base, Subdirs: subdirs}
}

// Enabled reports whether the store has somewhere to put things.
func (s *Store) Enabled() bool {
	return s != nil && s.Base != ""
}

// EntryPath returns the absolute path where a cache entry would live given
// the clear-text key. It also returns true if a file currently exists at that
// path.
func (s *Store) EntryPath(clearKey string) (string, bool) {
	if !s.Enabled() {
		return "", false
	}
	p := filepath.Join(s.dir(), encodeKey(clearKey))
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	return p, false
}

// Read attempts to read a cached entry.
func (s *Store) Read(clearKey string) (*Entry, bool) {
	p, ok := s.EntryPath(clearKey)
	if !ok {
		return nil, false
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	b = bytes.TrimSpace(b)
	return &Entry{
		Key:        clearKey,
		EncodedKey: encodeKey(clearKey),
		Path:       p,
		Data:       b,
	}, true
}

// Write stores data for the given key. Creates directories as needed.
func (s *Store) Write(clearKey string, data []byte) error {
	if !s.Enabled() {
		return nil // treat as disabled.
	}
	dir := s.dir()
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	p := filepath.Join(dir, encodeKey(clearKey))
	if err := os.WriteFile(p, data, os.FileMode(0o600)); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Purge removes files older than the provided number of hours from this
// store's base. If hours <= 0 it is a no-op.
func (s *Store) Purge(hours int) error {
	if hours <= 0 {
		log.Debug("cache cleaning disabled")
		return nil
	}
	if !s.Enabled() {
		return nil
	}
	return purge(s.Base, time.Duration(hours)*time.Hour)
}

// PurgeAll removes every file beneath the store's base.
func (s *Store) PurgeAll() error {
	if !s.Enabled() {
		return nil
	}
	return purge(s.Base, 0)
}

// Stats summarizes what is on disk beneath the store's base.
type Stats struct {
	Base    string
	Entries int
	Bytes   uint64
	Oldest  time.Time
	Newest  time.Time
}

// Stats walks the base directory. A missing directory is an empty cache.
func (s *Store) Stats() (Stats, error) {
	st := Stats{Base: s.Base}
	if !s.Enabled() {
		return st, nil
	}
	err := filepath.WalkDir(s.Base, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr
		}
		st.Entries++
		st.Bytes += uint64(info.Size()) //nolint:gosec
		mt := info.ModTime()
		if st.Oldest.IsZero() || mt.Before(st.Oldest) {
			st.Oldest = mt
		}
		if mt.After(st.Newest) {
			st.Newest = mt
		}
		return nil
	})
	if err != nil {
		return st, fmt.Errorf("failed to read cache directory: %w", err)
	}
	return st, nil
}

func (s *Store) dir() string {
	return filepath.Join(append([]string{s.Base}, s.Subdirs...)...)
}

// purge removes files beneath base whose age exceeds maxAge. A zero maxAge
// removes everything.
func purge(base string, maxAge time.Duration) error {
	if err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil {
			return nil //nolint:nilerr
		}
		if !info.IsDir() && (maxAge == 0 || time.Since(info.ModTime()) > maxAge) {
			if err := os.Remove(path); err == nil {
				log.Debugf("removed cache file %s", path)
			} else {
				log.WithError(err).Warnf("failed to remove cache file %s", path)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

// encodeKey hashes k with MD5 and returns the hex string.
func encodeKey(k string) string {
	h := md5.New()
	_, _ = h.Write([]byte(k))
	return hex.EncodeToString(h.Sum(nil))
}
