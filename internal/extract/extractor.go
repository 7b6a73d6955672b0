// Package extract reads catalog listings and pagination links out of HTML
// pages using goquery selectors.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
	"github.com/JakeFAU/catalog-crawler/internal/metrics"
)

// ErrMissingField is wrapped by FieldError when a required element is absent or empty.
var ErrMissingField = errors.New("missing required field")

// Field names reported in FieldError.
const (
	FieldTitle        = "title"
	FieldPrice        = "price"
	FieldAvailability = "availability"
	FieldRating       = "rating"
)

// FieldError explains why a listing block was skipped.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Selectors locate the listing blocks and their fields.
type Selectors struct {
	// Item matches one listing block; the other selectors are relative to it.
	Item string `mapstructure:"item"`
	// Title matches the element carrying the title. TitleAttr is read first,
	// falling back to the element text.
	Title     string `mapstructure:"title"`
	TitleAttr string `mapstructure:"title_attr"`
	Price     string `mapstructure:"price"`
	// Availability text is stored verbatim apart from trimming.
	Availability string `mapstructure:"availability"`
	// Rating matches the element whose class list encodes the rating.
	Rating string `mapstructure:"rating"`
	// RatingClass is the class token to discard from the rating class list.
	RatingClass string `mapstructure:"rating_class"`
	// Next matches the "next page" link.
	Next string `mapstructure:"next"`
}

// DefaultSelectors matches the books.toscrape.com markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Item:         "article.product_pod",
		Title:        "h3 a",
		TitleAttr:    "title",
		Price:        "p.price_color",
		Availability: "p.availability",
		Rating:       "p.star-rating",
		RatingClass:  "star-rating",
		Next:         "li.next a",
	}
}

// withDefaults fills empty selectors from DefaultSelectors.
func (s Selectors) withDefaults() Selectors {
	d := DefaultSelectors()
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	if strings.TrimSpace(s.Title) == "" {
		s.Title, s.TitleAttr = d.Title, d.TitleAttr
	}
	fill(&s.Item, d.Item)
	fill(&s.Price, d.Price)
	fill(&s.Availability, d.Availability)
	fill(&s.Rating, d.Rating)
	fill(&s.RatingClass, d.RatingClass)
	fill(&s.Next, d.Next)
	return s
}

// BlockResult is the outcome of extracting one listing block: either a
// record or the reason the block was skipped.
type BlockResult struct {
	Index  int
	Record crawler.Record
	Err    error
}

// OK reports whether the block produced a record.
func (b BlockResult) OK() bool {
	return b.Err == nil
}

// Extractor implements crawler.Extractor.
type Extractor struct {
	sel    Selectors
	logger *zap.Logger
}

// NewExtractor builds an Extractor. Empty selectors fall back to DefaultSelectors.
func NewExtractor(sel Selectors, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{sel: sel.withDefaults(), logger: logger}
}

// Extract returns the valid records on the page in document order. Blocks
// that fail are logged and dropped.
func (e *Extractor) Extract(content []byte) []crawler.Record {
	blocks := e.Blocks(content)
	out := make([]crawler.Record, 0, len(blocks))
	for _, b := range blocks {
		if !b.OK() {
			field := "unknown"
			var fe *FieldError
			if errors.As(b.Err, &fe) {
				field = fe.Field
			}
			metrics.ObserveSkippedBlock(field)
			e.logger.Warn("skipping listing block",
				zap.Int("index", b.Index),
				zap.String("field", field),
				zap.Error(b.Err),
			)
			continue
		}
		if stars, ok := RatingValue(b.Record.Rating); ok {
			e.logger.Debug("listing extracted",
				zap.Int("index", b.Index),
				zap.String("title", b.Record.Title),
				zap.Int("stars", stars),
			)
		}
		out = append(out, b.Record)
	}
	return out
}

// Blocks extracts every listing block on the page independently.
func (e *Extractor) Blocks(content []byte) []BlockResult {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		e.logger.Warn("unable to parse page", zap.Error(err))
		return nil
	}
	items := doc.Find(e.sel.Item)
	results := make([]BlockResult, 0, items.Length())
	items.Each(func(i int, block *goquery.Selection) {
		rec, err := e.extractBlock(block)
		results = append(results, BlockResult{Index: i, Record: rec, Err: err})
	})
	return results
}

func (e *Extractor) extractBlock(block *goquery.Selection) (crawler.Record, error) {
	var rec crawler.Record

	titleSel := block.Find(e.sel.Title).First()
	title, ok := "", false
	if e.sel.TitleAttr != "" {
		title, ok = titleSel.Attr(e.sel.TitleAttr)
	}
	if !ok || strings.TrimSpace(title) == "" {
		title = titleSel.Text()
	}
	rec.Title = CleanText(title)
	if rec.Title == "" {
		return crawler.Record{}, &FieldError{Field: FieldTitle, Err: ErrMissingField}
	}

	priceSel := block.Find(e.sel.Price).First()
	if priceSel.Length() == 0 {
		return crawler.Record{}, &FieldError{Field: FieldPrice, Err: ErrMissingField}
	}
	price, err := ParsePrice(priceSel.Text())
	if err != nil {
		return crawler.Record{}, &FieldError{Field: FieldPrice, Err: err}
	}
	rec.Price = price

	rec.Availability = strings.TrimSpace(block.Find(e.sel.Availability).First().Text())
	if rec.Availability == "" {
		return crawler.Record{}, &FieldError{Field: FieldAvailability, Err: ErrMissingField}
	}

	ratingSel := block.Find(e.sel.Rating).First()
	if ratingSel.Length() == 0 {
		return crawler.Record{}, &FieldError{Field: FieldRating, Err: ErrMissingField}
	}
	class, _ := ratingSel.Attr("class")
	rating, err := ParseRating(class, e.sel.RatingClass)
	if err != nil {
		return crawler.Record{}, &FieldError{Field: FieldRating, Err: err}
	}
	rec.Rating = rating

	if err := rec.Validate(); err != nil {
		return crawler.Record{}, fmt.Errorf("validate record: %w", err)
	}
	return rec, nil
}
