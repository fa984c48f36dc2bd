package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLite persists records in a local database file
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database file at path
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(context.Background(), schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Get implements Storage
func (s *SQLite) Get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow("SELECT value FROM records WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

// Set implements Storage
func (s *SQLite) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO records (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// Remove implements Storage
func (s *SQLite) Remove(key string) error {
	_, err := s.db.Exec("DELETE FROM records WHERE key = ?", key)
	return err
}

// Close releases the underlying database handle
func (s *SQLite) Close() error {
	return s.db.Close()
}
