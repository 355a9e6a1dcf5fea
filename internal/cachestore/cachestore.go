// Package cachestore provides a day-scoped file cache for raw catalog
// payloads. An entry is keyed by (server, data type) and stays valid only
// while its file's modification time falls on the current calendar date,
// so every run on a new day refreshes from the provider.
package cachestore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store reads and writes cached catalog payloads under a directory.
type Store struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithNow overrides the clock used for freshness checks. Tests use this to
// simulate day boundaries.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger for cache diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store rooted at dir.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the cached payload for (server, dataType) and whether it was
// usable. Every failure mode is a miss: file absent, modified on a previous
// calendar date, unreadable, or not valid JSON. IO problems are logged at
// warn; a miss is never an error to the caller.
func (s *Store) Load(server, dataType string) (json.RawMessage, bool) {
	path := s.path(server, dataType)

	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("cache stat failed",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}

	if !sameDate(info.ModTime(), s.now()) {
		s.logger.Debug("cache entry stale",
			slog.String("path", path),
			slog.Time("modified", info.ModTime()),
		)
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("cache read failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	if !json.Valid(data) {
		s.logger.Warn("cache entry is not valid JSON, ignoring",
			slog.String("path", path),
		)
		return nil, false
	}

	return data, true
}

// Save writes the payload for (server, dataType). The write is atomic: a
// temp file in the same directory is renamed over the target, so a reader
// sees either the previous entry or the complete new one. Callers treat
// failures as best-effort and continue.
func (s *Store) Save(server, dataType string, payload json.RawMessage) error {
	path := s.path(server, dataType)

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing cache temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming cache file: %w", err)
	}
	return nil
}

// path builds the cache file path for (server, dataType).
func (s *Store) path(server, dataType string) string {
	return filepath.Join(s.dir, FileName(server, dataType))
}

// FileName derives the cache file name for (server, dataType). The server is
// sanitized for the filesystem and suffixed with a short hash so distinct
// servers never collide after sanitization.
func FileName(server, dataType string) string {
	sum := sha256.Sum256([]byte(server))
	return fmt.Sprintf("cache-%s-%s-%s.json",
		sanitize(server), sanitize(dataType), hex.EncodeToString(sum[:4]))
}

// sanitize maps path-hostile runes to underscores.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}

// sameDate reports whether two instants fall on the same calendar date.
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
