// Package db keeps fetched WHOOP records in SQLite so reloads within the same
// load window do not hit the API again.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database that lives as long as the
// DB value.
const MemoryPath = ":memory:"

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

// New opens the database at path and initializes the schema. Use MemoryPath
// for a cache that is never written to disk.
func New(path string) (*DB, error) {
	inMemory := isMemory(path)

	if !inMemory {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		// Every connection to :memory: is a separate database.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	if err := db.configure(inMemory); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

func isMemory(path string) bool {
	return path == MemoryPath || strings.Contains(path, "mode=memory")
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// InMemory reports whether the database lives only in this process.
func (db *DB) InMemory() bool {
	return isMemory(db.path)
}

// configure sets up database pragmas.
func (db *DB) configure(inMemory bool) error {
	pragmas := []string{
		"PRAGMA cache_size=-16000",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	if !inMemory {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (db *DB) createSchema() error {
	if err := db.createFetchesTable(); err != nil {
		return err
	}
	if err := db.createRecordsTable(); err != nil {
		return err
	}
	return db.createProfileTable()
}

func (db *DB) createFetchesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS fetches (
		fetch_key TEXT PRIMARY KEY,
		range_start TEXT NOT NULL,
		range_end TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_fetches_fetched_at ON fetches(fetched_at);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createRecordsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS records (
		fetch_key TEXT NOT NULL REFERENCES fetches(fetch_key) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		record_id TEXT NOT NULL,
		recorded_at TEXT NOT NULL,
		payload TEXT NOT NULL,
		PRIMARY KEY (fetch_key, kind, record_id)
	);
	CREATE INDEX IF NOT EXISTS idx_records_kind_time ON records(fetch_key, kind, recorded_at);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createProfileTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS profile (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		payload TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

// Close closes the database connection gracefully.
func (db *DB) Close() error {
	if !db.InMemory() {
		// Checkpoint WAL before closing
		_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return db.DB.Close()
}

// Vacuum performs database maintenance to reclaim space.
func (db *DB) Vacuum() error {
	_, err := db.ExecContext(context.Background(), "VACUUM")
	return err
}
