package adaptor

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Storage persists element fingerprints keyed by (domain, key) in SQLite.
type Storage struct {
	db *sql.DB
}

const storageSchema = `
CREATE TABLE IF NOT EXISTS fingerprints (
	domain     TEXT NOT NULL,
	key        TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (domain, key)
);`

// OpenStorage opens (creating if needed) the fingerprint database at path.
func OpenStorage(path string) (*Storage, error) {
	if path == "" {
		return nil, errors.New("adaptor: empty storage path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open storage database: %w", err)
	}
	if _, err := db.Exec(storageSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply storage schema: %w", err)
	}
	return &Storage{db: db}, nil
}

// Save upserts a fingerprint under (domain, key).
func (s *Storage) Save(domain, key string, fp Fingerprint) error {
	data, err := json.Marshal(fp)
	if err != nil {
		return fmt.Errorf("marshal fingerprint: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO fingerprints (domain, key, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(domain, key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		domain, key, string(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store fingerprint: %w", err)
	}
	return nil
}

// Load returns the fingerprint stored under (domain, key), or nil when none
// exists.
func (s *Storage) Load(domain, key string) (*Fingerprint, error) {
	var data string
	err := s.db.QueryRow(
		`SELECT data FROM fingerprints WHERE domain = ? AND key = ?`,
		domain, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load fingerprint: %w", err)
	}

	var fp Fingerprint
	if err := json.Unmarshal([]byte(data), &fp); err != nil {
		return nil, fmt.Errorf("decode fingerprint: %w", err)
	}
	return &fp, nil
}

// Close releases the database handle.
func (s *Storage) Close() error {
	return s.db.Close()
}
