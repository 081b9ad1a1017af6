// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/avolkov/orderledger/internal/storage"
	"github.com/avolkov/orderledger/internal/watch"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	changes *watch.Bus
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories, verifies store integrity and runs
// migrations automatically.
//
// A database that fails the integrity check is deleted and rebuilt from
// empty: losing the data is acceptable in the corruption path, leaving
// the application unusable is not.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := open(dbPath)
	if err == nil {
		err = checkIntegrity(db)
	}
	if err != nil {
		slog.Error("Store failed integrity check, rebuilding from empty",
			"database", dbPath, "error", err)
		if db != nil {
			db.Close()
		}
		if err := removeDatabase(dbPath); err != nil {
			return nil, fmt.Errorf("failed to remove corrupted database: %w", err)
		}
		db, err = open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild database: %w", err)
		}
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, changes: watch.NewBus()}, nil
}

// open opens the database with the pure Go driver and applies pragmas.
func open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL keeps readers and the single writer out of each others' way.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return db, nil
}

// checkIntegrity runs SQLite's integrity check and fails unless the
// store reports itself healthy.
func checkIntegrity(db *sql.DB) error {
	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check reported: %s", result)
	}
	return nil
}

// removeDatabase deletes the database file along with its WAL sidecars.
func removeDatabase(dbPath string) error {
	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Changes returns the bus notified after every committed mutation.
func (s *SQLiteStore) Changes() *watch.Bus {
	return s.changes
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
