package crawler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one catalog listing extracted from a page.
type Record struct {
	Title        string          `json:"title"`
	Price        decimal.Decimal `json:"price"`
	Availability string          `json:"availability"`
	Rating       string          `json:"rating"`
}

// ErrInvalidRecord is returned by Record.Validate for records missing a required field.
var ErrInvalidRecord = errors.New("invalid record")

// Validate reports whether every required field is present.
func (r Record) Validate() error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return fmt.Errorf("%w: title is empty", ErrInvalidRecord)
	case r.Price.IsNegative():
		return fmt.Errorf("%w: price %s is negative", ErrInvalidRecord, r.Price)
	case strings.TrimSpace(r.Availability) == "":
		return fmt.Errorf("%w: availability is empty", ErrInvalidRecord)
	case strings.TrimSpace(r.Rating) == "":
		return fmt.Errorf("%w: rating is empty", ErrInvalidRecord)
	}
	return nil
}

// PageResult is what one fetched page contributes to a crawl.
// Next is nil when the page has no next link.
type PageResult struct {
	Records []Record
	Next    *url.URL
}

// TerminationReason explains why a crawl stopped.
type TerminationReason string

// Termination reasons reported in Outcome.Reason.
const (
	ReasonNoNextPage  TerminationReason = "no_next_page"
	ReasonPageLimit   TerminationReason = "page_limit"
	ReasonFetchFailed TerminationReason = "fetch_failed"
	ReasonRevisit     TerminationReason = "revisit"
)

// Outcome is returned once per crawl.
type Outcome struct {
	Records []Record
	// Pages counts successfully fetched pages, seed included.
	Pages int
	// Visited mirrors CrawlState.Visited at termination.
	Visited int
	Reason  TerminationReason
	// Err carries the fetch failure that ended the crawl, if any.
	Err error
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Timeout time.Duration
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// OK reports whether the response carries a 2xx status.
func (r FetchResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
