package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

// BookStore is the relational backend a RelationalSink writes through.
type BookStore interface {
	EnsureSchema(ctx context.Context) error
	InsertBook(ctx context.Context, rec crawler.Record) (int64, error)
	Close() error
}

// Opener connects to a BookStore for the duration of one Write.
type Opener func(ctx context.Context) (BookStore, error)

// RelationalSink inserts records one row at a time. Each insert commits on its
// own; the first failed insert stops the write and earlier rows remain.
type RelationalSink struct {
	name string
	kind Kind
	open Opener
}

// NewRelationalSink returns a sink that opens its store through open.
func NewRelationalSink(name string, kind Kind, open Opener) *RelationalSink {
	return &RelationalSink{name: name, kind: kind, open: open}
}

// Name returns the printable destination.
func (s *RelationalSink) Name() string {
	return s.name
}

// Write ensures the schema exists and inserts records in order.
func (s *RelationalSink) Write(ctx context.Context, records []crawler.Record) (err error) {
	store, err := s.open(ctx)
	if err != nil {
		return fmt.Errorf("open %s store: %w", s.kind, err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	for i, rec := range records {
		if _, err := store.InsertBook(ctx, rec); err != nil {
			return fmt.Errorf("record %d (%q): %w", i, rec.Title, err)
		}
	}
	return nil
}
