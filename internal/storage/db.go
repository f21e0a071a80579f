package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when no record has the requested key.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a primary or unique key already exists.
	ErrDuplicate = errors.New("record already exists")
	// ErrStateChanged is returned when a conditional update matched no row.
	ErrStateChanged = errors.New("record state changed")
)

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite has a single writer, and ":memory:" databases are per connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY NOT NULL,
			password_hash TEXT NOT NULL,
			role INTEGER NOT NULL,
			balance INTEGER NOT NULL DEFAULT 0 CHECK (balance BETWEEN 0 AND 1000000000),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS parcels (
			id INTEGER PRIMARY KEY NOT NULL,
			cost INTEGER NOT NULL,
			state INTEGER NOT NULL,
			sending_year INTEGER NOT NULL,
			sending_month INTEGER NOT NULL,
			sending_day INTEGER NOT NULL,
			receiving_year INTEGER,
			receiving_month INTEGER,
			receiving_day INTEGER,
			src_name TEXT NOT NULL,
			dst_name TEXT NOT NULL,
			description TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_parcels_src_name ON parcels(src_name)`,
		`CREATE INDEX IF NOT EXISTS idx_parcels_dst_name ON parcels(dst_name)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
