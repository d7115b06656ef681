// Package filecache implements the cache port as a durable on-disk store:
// one JSON record per fingerprint, written atomically via a temp file and
// rename so concurrent readers never observe a partial entry. Entries
// survive process restarts until their TTL elapses.
package filecache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Strob0t/LensForge/internal/domain/analysis"
	"github.com/Strob0t/LensForge/internal/port/cache"
)

// record is the on-disk shape of one cache entry.
type record struct {
	Fingerprint string          `json:"fingerprint"`
	Result      analysis.Result `json:"result"`
	CreatedAt   time.Time       `json:"created_at"`
	TTLSeconds  float64         `json:"ttl_seconds"`
}

// Store keeps one JSON file per fingerprint under dir.
type Store struct {
	dir string
	mu  sync.Mutex // serializes write/remove of individual records
}

// New creates the cache directory if needed and returns a Store.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, analysis.WrapError(analysis.KindCache, fmt.Sprintf("create cache dir %s", dir), err)
	}
	return &Store{dir: dir}, nil
}

// Get reads a record. Corrupt, unreadable, or expired records behave as a
// miss and are removed where possible, never surfaced as fatal errors.
func (s *Store) Get(_ context.Context, fingerprint string) (cache.Entry, bool, error) {
	path, err := s.path(fingerprint)
	if err != nil {
		return cache.Entry{}, false, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is derived from a hex fingerprint under s.dir
	if err != nil {
		if os.IsNotExist(err) {
			return cache.Entry{}, false, nil
		}
		return cache.Entry{}, false, analysis.WrapError(analysis.KindCache, "read cache record", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		// Corrupt record: drop it and report a miss.
		s.remove(path)
		return cache.Entry{}, false, nil
	}

	entry := cache.Entry{
		Fingerprint: rec.Fingerprint,
		Result:      rec.Result,
		CreatedAt:   rec.CreatedAt,
		TTL:         time.Duration(rec.TTLSeconds * float64(time.Second)),
	}
	if entry.Expired(time.Now()) {
		s.remove(path)
		return cache.Entry{}, false, nil
	}
	return entry, true, nil
}

// Set writes the entry's record atomically, overwriting any existing one.
func (s *Store) Set(_ context.Context, entry cache.Entry) error {
	path, err := s.path(entry.Fingerprint)
	if err != nil {
		return err
	}

	data, err := json.Marshal(record{
		Fingerprint: entry.Fingerprint,
		Result:      entry.Result,
		CreatedAt:   entry.CreatedAt,
		TTLSeconds:  entry.TTL.Seconds(),
	})
	if err != nil {
		return analysis.WrapError(analysis.KindCache, "marshal cache record", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "entry-*.tmp")
	if err != nil {
		return analysis.WrapError(analysis.KindCache, "create temp record", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return analysis.WrapError(analysis.KindCache, "write temp record", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return analysis.WrapError(analysis.KindCache, "close temp record", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return analysis.WrapError(analysis.KindCache, "rename cache record", err)
	}
	return nil
}

// Delete removes the record for a fingerprint. Missing records are fine.
func (s *Store) Delete(_ context.Context, fingerprint string) error {
	path, err := s.path(fingerprint)
	if err != nil {
		return err
	}
	s.remove(path)
	return nil
}

// Purge removes every record in the cache directory.
func (s *Store) Purge(_ context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return analysis.WrapError(analysis.KindCache, "list cache dir", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			s.remove(filepath.Join(s.dir, e.Name()))
		}
	}
	return nil
}

func (s *Store) remove(path string) {
	s.mu.Lock()
	_ = os.Remove(path)
	s.mu.Unlock()
}

// path maps a fingerprint to its record file, rejecting anything that is
// not a plain hex key to keep traversal out of the cache dir.
func (s *Store) path(fingerprint string) (string, error) {
	if fingerprint == "" || strings.ContainsAny(fingerprint, `/\.`) {
		return "", analysis.NewError(analysis.KindCache, fmt.Sprintf("invalid fingerprint %q", fingerprint))
	}
	return filepath.Join(s.dir, fingerprint+".json"), nil
}
