package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
	"github.com/JakeFAU/catalog-crawler/internal/storage/local"
)

var csvHeader = []string{"title", "price", "availability", "rating"}

// FileSink writes all records into a single CSV or JSON file. The file is
// replaced atomically on every Write.
type FileSink struct {
	path string
	kind Kind
}

// NewFileSink returns a flat-file sink for path. kind must be KindCSV or KindJSON.
func NewFileSink(path string, kind Kind) (*FileSink, error) {
	if kind != KindCSV && kind != KindJSON {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind)
	}
	return &FileSink{path: path, kind: kind}, nil
}

// Name returns the destination path.
func (s *FileSink) Name() string {
	return s.path
}

// Write encodes records and stores them at the sink path.
func (s *FileSink) Write(ctx context.Context, records []crawler.Record) error {
	var buf bytes.Buffer
	var err error
	switch s.kind {
	case KindCSV:
		err = encodeCSV(&buf, records)
	case KindJSON:
		err = encodeJSON(&buf, records)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, s.kind)
	}
	if err != nil {
		return err
	}

	store, err := local.New(local.Config{BaseDir: filepath.Dir(s.path)})
	if err != nil {
		return fmt.Errorf("prepare output directory: %w", err)
	}
	if _, err := store.PutObject(ctx, filepath.Base(s.path), &buf); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// formatPrice writes the price at its own scale so "50.10" stays "50.10"
// and "5.5" stays "5.5" when read back.
func formatPrice(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

func encodeCSV(w io.Writer, records []crawler.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		row := []string{rec.Title, formatPrice(rec.Price), rec.Availability, rec.Rating}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

type jsonRow struct {
	Title        string      `json:"title"`
	Price        json.Number `json:"price"`
	Availability string      `json:"availability"`
	Rating       string      `json:"rating"`
}

func encodeJSON(w io.Writer, records []crawler.Record) error {
	rows := make([]jsonRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, jsonRow{
			Title:        rec.Title,
			Price:        json.Number(formatPrice(rec.Price)),
			Availability: rec.Availability,
			Rating:       rec.Rating,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// ReadCSV loads records from a file produced by a CSV sink.
func ReadCSV(path string) ([]crawler.Record, error) {
	// #nosec G304 -- path is an operator-supplied output file.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("csv file has no header")
	}
	for i, col := range csvHeader {
		if i >= len(rows[0]) || rows[0][i] != col {
			return nil, fmt.Errorf("unexpected csv header %v", rows[0])
		}
	}

	records := make([]crawler.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		price, err := decimal.NewFromString(row[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse price: %w", i+1, err)
		}
		records = append(records, crawler.Record{
			Title:        row[0],
			Price:        price,
			Availability: row[2],
			Rating:       row[3],
		})
	}
	return records, nil
}

// ReadJSON loads records from a file produced by a JSON sink.
func ReadJSON(path string) ([]crawler.Record, error) {
	// #nosec G304 -- path is an operator-supplied output file.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	var records []crawler.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return records, nil
}
