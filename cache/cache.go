// Package cache stores compiled program containers in SQLite, keyed by
// a hash of the source text, so unchanged sources skip recompilation.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS programs (
	hash       TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// Store is a compiled-program cache backed by a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SourceHash returns the cache key for a piece of source text.
func SourceHash(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// Get looks up a compiled program by source hash. The second return
// value reports whether the entry existed.
func (s *Store) Get(hash string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM programs WHERE hash = ?", hash).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup: %w", err)
	}
	return data, true, nil
}

// Put stores a compiled program under the given source hash, replacing
// any previous entry.
func (s *Store) Put(hash string, data []byte) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO programs (hash, data) VALUES (?, ?)",
		hash, data,
	)
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// Delete removes an entry. Deleting a missing entry is not an error.
func (s *Store) Delete(hash string) error {
	if _, err := s.db.Exec("DELETE FROM programs WHERE hash = ?", hash); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}
