package crawler

import (
	"context"
	"net/url"
)

// Fetcher fetches a URL and returns the body plus metadata.
// Non-2xx statuses and transport failures are both reported as *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Extractor turns raw page content into the page's valid records, in document order.
// Malformed listing blocks are skipped, never returned as an error.
type Extractor interface {
	Extract(content []byte) []Record
}

// Resolver finds the absolute URL of the page after current.
// The boolean is false when the page has no next link.
type Resolver interface {
	ResolveNext(content []byte, current *url.URL) (*url.URL, bool)
}
