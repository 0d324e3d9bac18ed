package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBlobStore keeps the board blob as one row of a key/value table.
type SQLiteBlobStore struct {
	db  *sql.DB
	key string
}

// OpenSQLiteBlobStore opens (or creates) the database at dbPath and stores
// the blob under key.
func OpenSQLiteBlobStore(dbPath, key string) (*SQLiteBlobStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer; serialise through a single connection.
	db.SetMaxOpenConns(1)

	if err := initBlobSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteBlobStore{db: db, key: key}, nil
}

func initBlobSchema(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS blobs (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	return err
}

// Load returns the stored blob, or nil when no row exists for the key.
func (s *SQLiteBlobStore) Load() ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query blob %s: %w", s.key, err)
	}
	return value, nil
}

// Save upserts the blob.
func (s *SQLiteBlobStore) Save(data []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, s.key, data, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save blob %s: %w", s.key, err)
	}
	return nil
}

// Clear deletes the row for the key.
func (s *SQLiteBlobStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM blobs WHERE key = ?`, s.key); err != nil {
		return fmt.Errorf("clear blob %s: %w", s.key, err)
	}
	return nil
}

// UpdatedAt reports when the blob was last saved. The zero time means no
// blob is stored.
func (s *SQLiteBlobStore) UpdatedAt() (time.Time, error) {
	var ts string
	err := s.db.QueryRow(`SELECT updated_at FROM blobs WHERE key = ?`, s.key).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query blob %s: %w", s.key, err)
	}
	return time.Parse(time.RFC3339Nano, ts)
}

// Close closes the database connection.
func (s *SQLiteBlobStore) Close() error {
	return s.db.Close()
}
