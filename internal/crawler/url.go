package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseSeed parses rawURL and requires an absolute http or https URL.
func ParseSeed(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q must use http or https", ErrInvalidSeed, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrInvalidSeed, rawURL)
	}
	return u, nil
}

// NormalizeURL standardizes a URL so equivalent page addresses compare equal.
// It lowercases the scheme and host, removes default ports, sorts query
// parameters and drops the fragment.
func NormalizeURL(u *url.URL) string {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)

	if c.Scheme == "http" && strings.HasSuffix(c.Host, ":80") {
		c.Host = strings.TrimSuffix(c.Host, ":80")
	}
	if c.Scheme == "https" && strings.HasSuffix(c.Host, ":443") {
		c.Host = strings.TrimSuffix(c.Host, ":443")
	}

	c.Fragment = ""
	c.RawFragment = ""
	c.RawQuery = c.Query().Encode()

	return c.String()
}
