package crawler

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidSeed is returned when the seed URL is not an absolute http(s) URL.
var ErrInvalidSeed = errors.New("invalid seed url")

// FetchError reports a page that could not be fetched, either because the
// transport failed or because the server answered with a non-2xx status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// AsFetchError wraps err in a *FetchError for url unless it already is one.
func AsFetchError(url string, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{URL: url, Err: err}
}
