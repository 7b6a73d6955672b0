package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Resolver implements crawler.Resolver by following the first element
// matching the next-link selector.
type Resolver struct {
	selector string
	logger   *zap.Logger
}

// NewResolver builds a Resolver for selector; empty means DefaultSelectors().Next.
func NewResolver(selector string, logger *zap.Logger) *Resolver {
	if strings.TrimSpace(selector) == "" {
		selector = DefaultSelectors().Next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{selector: selector, logger: logger}
}

// ResolveNext returns the absolute URL of the next page, resolved against
// current with RFC 3986 reference resolution. A missing link, a blank href
// or an href that does not parse all mean there is no next page.
func (r *Resolver) ResolveNext(content []byte, current *url.URL) (*url.URL, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		r.logger.Warn("unable to parse page for pagination", zap.Error(err))
		return nil, false
	}
	href, ok := doc.Find(r.selector).First().Attr("href")
	if !ok {
		return nil, false
	}
	href = strings.TrimSpace(href)
	if href == "" {
		r.logger.Warn("next link has an empty href", zap.String("page", current.String()))
		return nil, false
	}
	ref, err := url.Parse(href)
	if err != nil {
		r.logger.Warn("next link href does not parse",
			zap.String("page", current.String()),
			zap.String("href", href),
			zap.Error(err),
		)
		return nil, false
	}
	return current.ResolveReference(ref), true
}
