// Package sink persists crawled records to flat files and relational stores.
package sink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
	"github.com/JakeFAU/catalog-crawler/internal/metrics"
	"github.com/JakeFAU/catalog-crawler/internal/storage/postgres"
	"github.com/JakeFAU/catalog-crawler/internal/storage/sqlite"
)

// Kind identifies the storage format of a destination.
type Kind string

const (
	KindCSV      Kind = "csv"
	KindJSON     Kind = "json"
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
)

const sqliteScheme = "sqlite://"

// ErrUnsupportedFormat is returned for destinations no sink can handle.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// SinkError reports a failure of one named sink.
type SinkError struct {
	Sink string
	Kind Kind
	Err  error
}

func (e *SinkError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("sink %s: %v", e.Sink, e.Err)
	}
	return fmt.Sprintf("%s sink %s: %v", e.Kind, e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// Sink persists a full record sequence in order.
type Sink interface {
	Name() string
	Write(ctx context.Context, records []crawler.Record) error
}

// Destination is a parsed output target.
type Destination struct {
	Raw  string
	Kind Kind
	// Target is the file path for flat files and SQLite, or the DSN for Postgres.
	Target string
}

// Name returns a printable form of the destination with credentials removed.
func (d Destination) Name() string {
	if d.Kind != KindPostgres {
		return d.Target
	}
	u, err := url.Parse(d.Target)
	if err != nil {
		return "postgres"
	}
	return u.Redacted()
}

// Parse selects the sink kind for a destination string.
func Parse(raw string) (Destination, error) {
	target := strings.TrimSpace(raw)
	lower := strings.ToLower(target)

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Destination{Raw: raw, Kind: KindPostgres, Target: target}, nil
	case strings.HasPrefix(lower, sqliteScheme):
		path := target[len(sqliteScheme):]
		if path == "" {
			return Destination{}, &SinkError{Sink: raw, Kind: KindSQLite, Err: errors.New("missing database path")}
		}
		return Destination{Raw: raw, Kind: KindSQLite, Target: path}, nil
	}

	switch strings.ToLower(filepath.Ext(target)) {
	case ".csv":
		return Destination{Raw: raw, Kind: KindCSV, Target: target}, nil
	case ".json":
		return Destination{Raw: raw, Kind: KindJSON, Target: target}, nil
	case ".db", ".sqlite":
		return Destination{Raw: raw, Kind: KindSQLite, Target: target}, nil
	}
	return Destination{}, &SinkError{Sink: raw, Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)}
}

// Options tunes relational sinks.
type Options struct {
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// New builds the sink for dest.
func New(dest Destination, opts Options, logger *zap.Logger) (Sink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var inner Sink
	switch dest.Kind {
	case KindCSV, KindJSON:
		inner = &FileSink{path: dest.Target, kind: dest.Kind}
	case KindSQLite:
		inner = NewRelationalSink(dest.Name(), KindSQLite, func(context.Context) (BookStore, error) {
			store, err := sqlite.Open(sqlite.Config{Path: dest.Target, Table: opts.Table})
			if err != nil {
				return nil, err
			}
			return store, nil
		})
	case KindPostgres:
		inner = NewRelationalSink(dest.Name(), KindPostgres, func(ctx context.Context) (BookStore, error) {
			store, err := postgres.NewBookStore(ctx, postgres.BookStoreConfig{
				DSN:             dest.Target,
				Table:           opts.Table,
				MaxConns:        opts.MaxConns,
				MaxConnLifetime: opts.MaxConnLifetime,
			})
			if err != nil {
				return nil, err
			}
			return store, nil
		})
	default:
		return nil, &SinkError{Sink: dest.Raw, Kind: dest.Kind, Err: ErrUnsupportedFormat}
	}

	return &instrumented{
		inner:  inner,
		kind:   dest.Kind,
		logger: logger.With(zap.String("sink", inner.Name()), zap.String("kind", string(dest.Kind))),
	}, nil
}

// FromDestinations parses and builds one sink per destination string.
func FromDestinations(raw []string, opts Options, logger *zap.Logger) ([]Sink, error) {
	sinks := make([]Sink, 0, len(raw))
	for _, r := range raw {
		dest, err := Parse(r)
		if err != nil {
			return nil, err
		}
		s, err := New(dest, opts, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// WriteAll hands records to every sink, continuing past failures. The
// returned error joins one *SinkError per failed sink.
func WriteAll(ctx context.Context, sinks []Sink, records []crawler.Record) error {
	var errs []error
	for _, s := range sinks {
		if err := s.Write(ctx, records); err != nil {
			var sinkErr *SinkError
			if !errors.As(err, &sinkErr) {
				err = &SinkError{Sink: s.Name(), Err: err}
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// instrumented wraps a sink with logging, metrics and SinkError reporting.
type instrumented struct {
	inner  Sink
	kind   Kind
	logger *zap.Logger
}

func (s *instrumented) Name() string {
	return s.inner.Name()
}

func (s *instrumented) Write(ctx context.Context, records []crawler.Record) error {
	start := time.Now()
	if err := s.inner.Write(ctx, records); err != nil {
		metrics.ObserveSinkWrite(string(s.kind), "error", 0)
		s.logger.Error("failed to write records", zap.Int("records", len(records)), zap.Error(err))
		return &SinkError{Sink: s.inner.Name(), Kind: s.kind, Err: err}
	}
	metrics.ObserveSinkWrite(string(s.kind), "ok", len(records))
	s.logger.Info("records written",
		zap.Int("records", len(records)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
