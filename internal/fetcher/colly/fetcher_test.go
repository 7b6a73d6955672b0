package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>catalog</body></html>"))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "catalog-agent", Timeout: time.Second}, nil)
	resp, err := f.Fetch(context.Background(), crawler.FetchRequest{URL: srv.URL + "/index.html"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<html><body>catalog</body></html>", string(resp.Body))
	assert.Equal(t, srv.URL+"/index.html", resp.URL)
	assert.Equal(t, "catalog-agent", resp.Headers.Get("X-Seen-Agent"))
}

func TestFetchRepeatedURL(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := New(Config{}, nil)
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), crawler.FetchRequest{URL: srv.URL})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchNonSuccessStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		f := New(Config{Timeout: time.Second}, nil)
		_, err := f.Fetch(context.Background(), crawler.FetchRequest{URL: srv.URL})
		srv.Close()

		var fe *crawler.FetchError
		require.ErrorAs(t, err, &fe, "status %d", status)
		assert.Equal(t, status, fe.StatusCode)
		assert.Equal(t, srv.URL, fe.URL)
	}
}

func TestFetchNetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	target := srv.URL
	srv.Close()

	f := New(Config{Timeout: time.Second}, nil)
	_, err := f.Fetch(context.Background(), crawler.FetchRequest{URL: target})

	var fe *crawler.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Zero(t, fe.StatusCode)
	assert.Error(t, fe.Err)
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := New(Config{Timeout: 5 * time.Second}, nil)
	_, err := f.Fetch(ctx, crawler.FetchRequest{URL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchWaitsOnLimiter(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	limiter := &stubWaiter{}
	f := New(Config{}, limiter)
	_, err := f.Fetch(context.Background(), crawler.FetchRequest{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL}, limiter.urls)

	limiter.err = errors.New("slow down")
	_, err = f.Fetch(context.Background(), crawler.FetchRequest{URL: srv.URL})
	var fe *crawler.FetchError
	require.ErrorAs(t, err, &fe)
	assert.ErrorContains(t, fe, "slow down")
}

func TestFetcherBuildCollector(t *testing.T) {
	t.Parallel()

	f := New(Config{UserAgent: "coverage-agent", Timeout: time.Second}, nil)
	collector := f.buildCollector(crawler.FetchRequest{URL: "https://example.com"}, time.Unix(0, 0), &crawler.FetchResponse{}, new(error))
	assert.Equal(t, "coverage-agent", collector.UserAgent)
	assert.True(t, collector.IgnoreRobotsTxt)
	assert.True(t, collector.AllowURLRevisit)
	assert.True(t, collector.ParseHTTPErrorResponse)
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil)
	req := crawler.FetchRequest{
		URL:     "https://example.com",
		Headers: http.Header{"X-Trace": {"yes"}},
	}
	var result crawler.FetchResponse
	var fetchErr error

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, req, time.Unix(0, 0), &result, &fetchErr)
	require.NotNil(t, hooks.onRequest)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	collyReq := &colly.Request{Headers: &http.Header{}}
	hooks.onRequest(collyReq)
	assert.Equal(t, "yes", collyReq.Headers.Get("X-Trace"))

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusCreated,
		Body:       []byte("body"),
		Headers:    &http.Header{"X-Resp": {"ok"}},
		Request: &colly.Request{
			URL: mustParseURL(t, "https://example.com"),
		},
	})
	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Equal(t, "body", string(result.Body))
	assert.Equal(t, "ok", result.Headers.Get("X-Resp"))

	hooks.onError(nil, errors.New("boom"))
	require.EqualError(t, fetchErr, "boom")
}

func TestCopyHeadersHandlesNil(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil)
	collyReq := &colly.Request{Headers: &http.Header{}}
	f.copyHeaders(crawler.FetchRequest{}, collyReq)
	assert.Empty(t, *collyReq.Headers)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", raw, err)
	}
	return u
}

type stubWaiter struct {
	urls []string
	err  error
}

func (s *stubWaiter) Wait(_ context.Context, url string) error {
	s.urls = append(s.urls, url)
	return s.err
}

type stubHooks struct {
	onRequest  colly.RequestCallback
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnRequest(cb colly.RequestCallback) {
	s.onRequest = cb
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
