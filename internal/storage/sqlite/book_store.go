// Package sqlite persists catalog records into a SQLite "books" table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

const defaultTable = "books"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls where the SQLite database lives.
type Config struct {
	// Path is the database file; parent directories are created as needed.
	Path  string
	Table string
}

// BookStore writes records into SQLite. Every insert runs in its own implicit
// transaction, so rows committed before a failure stay committed.
type BookStore struct {
	db    *sql.DB
	table string
}

// Open opens or creates the database file at cfg.Path.
func Open(cfg Config) (*BookStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	return &BookStore{db: db, table: table}, nil
}

// Close closes the database connection.
func (s *BookStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// EnsureSchema creates the books table if it does not exist yet.
func (s *BookStore) EnsureSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		price REAL NOT NULL,
		availability TEXT NOT NULL,
		rating TEXT NOT NULL
	)`, s.table)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// InsertBook inserts one record and returns its row id.
func (s *BookStore) InsertBook(ctx context.Context, rec crawler.Record) (int64, error) {
	query := fmt.Sprintf(
		`INSERT INTO %s (title, price, availability, rating) VALUES (?, ?, ?, ?)`,
		s.table,
	)
	res, err := s.db.ExecContext(ctx, query, rec.Title, rec.Price.InexactFloat64(), rec.Availability, rec.Rating)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}
	return id, nil
}

// ListBooks returns every stored record in insertion order.
func (s *BookStore) ListBooks(ctx context.Context) ([]crawler.Record, error) {
	query := fmt.Sprintf(`SELECT title, price, availability, rating FROM %s ORDER BY id`, s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var out []crawler.Record
	for rows.Next() {
		var (
			rec   crawler.Record
			price float64
		)
		if err := rows.Scan(&rec.Title, &price, &rec.Availability, &rec.Rating); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		rec.Price = decimal.NewFromFloat(price)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return out, nil
}
