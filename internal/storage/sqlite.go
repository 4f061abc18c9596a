// Package storage provides SQLite database connectivity and data access.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQL database connection with application-specific methods.
// The embedded pool takes the write lock on BEGIN; reader runs deferred
// transactions that never wait on writers.
type DB struct {
	*sql.DB
	reader *sql.DB
	path   string
}

// NewDB creates a new database connection to the SQLite file at the given path.
// It creates the directory structure if it doesn't exist.
func NewDB(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// - _foreign_keys=on: cascade window deletes to supports and reactions
	// - _journal_mode=WAL: concurrent readers alongside one writer
	// - _busy_timeout=5000: wait up to 5 seconds for the write lock
	// - _txlock=immediate: transactions take the write lock on BEGIN, so a
	//   read-validate-write sequence cannot interleave with another writer
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	// Journal mode is set by the writer and persists in the file
	reader, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000&_txlock=deferred", path))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening read pool: %w", err)
	}
	if err := reader.Ping(); err != nil {
		reader.Close()
		db.Close()
		return nil, fmt.Errorf("connecting read pool: %w", err)
	}
	reader.SetMaxOpenConns(10)
	reader.SetMaxIdleConns(4)

	return &DB{DB: db, reader: reader, path: path}, nil
}

// Path returns the filesystem path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Close closes both connection pools.
func (db *DB) Close() error {
	rerr := db.reader.Close()
	if err := db.DB.Close(); err != nil {
		return err
	}
	return rerr
}

// ReadTransaction runs fn in a deferred transaction on the read pool. It
// sees one consistent snapshot and does not queue behind writers.
func (db *DB) ReadTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.reader.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning read transaction: %w", err)
	}
	defer tx.Rollback()

	return fn(tx)
}

// Transaction executes a function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
