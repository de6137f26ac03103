package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// SQLiteStore is a Store backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the catalog database,
// ~/.bookmind/books.db, creating the directory if needed. Commands use it
// when CATALOG_DB is unset.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("catalog: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".bookmind")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("catalog: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "books.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS books (
    id           TEXT    PRIMARY KEY,
    title        TEXT    NOT NULL,
    author       TEXT    NOT NULL,
    description  TEXT    NOT NULL,
    metadata     TEXT    NOT NULL DEFAULT '{}',  -- JSON object of scalar attributes
    updated_at   INTEGER NOT NULL                -- Unix timestamp (seconds)
);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("catalog: migrate: %w", err)
	}
	return nil
}

// Put inserts or replaces a book by its ID.
func (s *SQLiteStore) Put(ctx context.Context, book BookRecord) error {
	if book.ID == "" {
		return fmt.Errorf("catalog: put: book id is required")
	}
	meta, err := json.Marshal(book.Metadata)
	if err != nil {
		return fmt.Errorf("catalog: put %s: marshal metadata: %w", book.ID, err)
	}

	const q = `
INSERT INTO books (id, title, author, description, metadata, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    author = excluded.author,
    description = excluded.description,
    metadata = excluded.metadata,
    updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, q,
		book.ID, book.Title, book.Author, book.Description, string(meta), time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("catalog: put %s: %w", book.ID, err)
	}
	return nil
}

// Get returns the book with the given id, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (BookRecord, error) {
	const q = `SELECT id, title, author, description, metadata FROM books WHERE id = ?`

	var book BookRecord
	var meta string
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&book.ID, &book.Title, &book.Author, &book.Description, &meta,
	)
	if err == sql.ErrNoRows {
		return BookRecord{}, ErrNotFound
	}
	if err != nil {
		return BookRecord{}, fmt.Errorf("catalog: get %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(meta), &book.Metadata); err != nil {
		return BookRecord{}, fmt.Errorf("catalog: get %s: unmarshal metadata: %w", id, err)
	}
	return book, nil
}

// Delete removes a book; deleting an absent id is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM books WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("catalog: delete %s: %w", id, err)
	}
	return nil
}

// List returns all books ordered by id.
func (s *SQLiteStore) List(ctx context.Context) ([]BookRecord, error) {
	const q = `SELECT id, title, author, description, metadata FROM books ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var books []BookRecord
	for rows.Next() {
		var book BookRecord
		var meta string
		if err := rows.Scan(&book.ID, &book.Title, &book.Author, &book.Description, &meta); err != nil {
			return nil, fmt.Errorf("catalog: list: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &book.Metadata); err != nil {
			return nil, fmt.Errorf("catalog: list: unmarshal metadata for %s: %w", book.ID, err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	return books, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
