// Package postgres provides Postgres-backed persistence for catalog records.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

const defaultTable = "books"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// BookStoreConfig controls the Postgres connection pool used for book rows.
type BookStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// BookStore writes catalog records into Postgres.
type BookStore struct {
	pool  pool
	table string
}

// NewBookStore creates a Postgres-backed BookStore using the provided config.
func NewBookStore(ctx context.Context, cfg BookStoreConfig) (*BookStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &BookStore{pool: p, table: table}, nil
}

// NewBookStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewBookStoreWithPool(p pool, table string) (*BookStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &BookStore{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		return defaultTable, nil
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *BookStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// EnsureSchema creates the books table if it does not exist yet.
func (s *BookStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	price NUMERIC(10,2) NOT NULL,
	availability TEXT NOT NULL,
	rating TEXT NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// InsertBook inserts one record and returns the generated id.
func (s *BookStore) InsertBook(ctx context.Context, rec crawler.Record) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, fmt.Errorf("book store is not configured")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (title, price, availability, rating)
VALUES ($1, $2, $3, $4)
RETURNING id`, s.table)

	var id int64
	err := s.pool.QueryRow(ctx, query, rec.Title, rec.Price.String(), rec.Availability, rec.Rating).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}
	return id, nil
}
