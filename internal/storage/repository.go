// Package storage persists users and ledger entries in a single-file
// SQLite database. Each exported method is a self-contained operation:
// it acquires a connection from the pool, executes, and releases on all
// paths. No cursor or transaction state survives a call.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"momoledger/internal/core"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable. Used by readiness checks.
func (r *SQLiteRepository) Ping() error {
	if err := r.db.Ping(); err != nil {
		return storageErr(err)
	}
	return nil
}

// timestampLayout matches what lands in a string scan destination:
// modernc.org/sqlite converts TIMESTAMP-decltype columns to time.Time,
// which database/sql renders as RFC 3339.
const timestampLayout = time.RFC3339

func parseTimestamp(s string) (time.Time, error) {
	ts, err := time.ParseInLocation(timestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return ts, nil
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %w", core.ErrStorage, err)
}

// classifyConstraint maps SQLite constraint violations onto the domain
// error taxonomy. Anything else is an infrastructure failure.
func classifyConstraint(err error) error {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %w", core.ErrConflict, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %w", core.ErrReferential, err)
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return fmt.Errorf("%w: %w", core.ErrValidation, err)
		}
	}
	return storageErr(err)
}
