package crawler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/metrics"
)

// ControllerConfig tunes a Controller.
type ControllerConfig struct {
	// FetchTimeout is passed to the Fetcher with every request.
	FetchTimeout time.Duration
	// UserAgent, when set, is sent as the User-Agent header.
	UserAgent string
}

// Controller drives the fetch, extract, resolve loop over a paginated catalog.
// Pages are processed strictly one after another.
type Controller struct {
	fetcher   Fetcher
	extractor Extractor
	resolver  Resolver
	cfg       ControllerConfig
	logger    *zap.Logger
}

// NewController wires the pipeline collaborators.
func NewController(
	fetcher Fetcher,
	extractor Extractor,
	resolver Resolver,
	cfg ControllerConfig,
	logger *zap.Logger,
) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	return &Controller{
		fetcher:   fetcher,
		extractor: extractor,
		resolver:  resolver,
		cfg:       cfg,
		logger:    logger,
	}
}

// Crawl walks the catalog from seed, following next links until a page has
// none, maxPages pages have been fetched, or a fetch fails. maxPages <= 0
// means unbounded.
//
// The returned Outcome always holds every record accumulated before the crawl
// stopped. A fetch failure after the seed page is reported in Outcome.Err only;
// the error return is non-nil when the seed is invalid or the seed page itself
// could not be fetched.
func (c *Controller) Crawl(ctx context.Context, seed string, maxPages int) (Outcome, error) {
	seedURL, err := ParseSeed(seed)
	if err != nil {
		return Outcome{Records: []Record{}}, err
	}

	state := NewCrawlState(seedURL, maxPages)
	c.logger.Info("crawl started",
		zap.String("seed", seedURL.String()),
		zap.Int("max_pages", state.MaxPages),
	)

	for {
		var (
			page *PageResult
			done bool
		)
		state, page, err = c.fetchPage(ctx, state)
		if err != nil {
			out := state.Outcome(ReasonFetchFailed, err)
			c.finish(out)
			if out.Pages == 0 {
				return out, err
			}
			return out, nil
		}

		var reason TerminationReason
		state, reason, done = c.advance(state, page)
		if done {
			out := state.Outcome(reason, nil)
			c.finish(out)
			return out, nil
		}
	}
}

// fetchPage runs the FETCHING and EXTRACTING steps for state.Current.
func (c *Controller) fetchPage(ctx context.Context, state CrawlState) (CrawlState, *PageResult, error) {
	current := state.Current.String()
	c.logger.Info("fetching page",
		zap.Int("page", state.Fetched+1),
		zap.String("url", current),
	)

	req := FetchRequest{URL: current, Timeout: c.cfg.FetchTimeout}
	if c.cfg.UserAgent != "" {
		req.Headers = map[string][]string{"User-Agent": {c.cfg.UserAgent}}
	}
	resp, err := c.fetcher.Fetch(ctx, req)
	if err == nil && !resp.OK() {
		err = &FetchError{URL: current, StatusCode: resp.StatusCode}
	}
	if err != nil {
		fe := AsFetchError(current, err)
		metrics.ObservePage(current, "error", 0, resp.Duration)
		c.logger.Warn("page fetch failed",
			zap.String("url", current),
			zap.Int("status_code", fe.StatusCode),
			zap.Error(fe),
		)
		return state, nil, fe
	}
	metrics.ObservePage(current, "ok", len(resp.Body), resp.Duration)

	records := c.extractor.Extract(resp.Body)
	metrics.ObserveRecords(current, len(records))
	state = state.Absorb(records)

	page := &PageResult{Records: records}
	if next, ok := c.resolver.ResolveNext(resp.Body, state.Current); ok && next != nil {
		page.Next = next
	}
	c.logger.Debug("page extracted",
		zap.String("url", current),
		zap.Int("records", len(records)),
		zap.Int("accumulated", len(state.Records)),
	)
	return state, page, nil
}

// advance runs the RESOLVING step. It reports true when the crawl is over.
func (c *Controller) advance(state CrawlState, page *PageResult) (CrawlState, TerminationReason, bool) {
	if page.Next == nil {
		return state, ReasonNoNextPage, true
	}
	next, reason, ok := state.Advance(page.Next)
	if !ok {
		return next, reason, true
	}
	return next, "", false
}

func (c *Controller) finish(out Outcome) {
	metrics.ObserveRun(string(out.Reason))
	fields := []zap.Field{
		zap.String("reason", string(out.Reason)),
		zap.Int("pages", out.Pages),
		zap.Int("visited", out.Visited),
		zap.Int("records", len(out.Records)),
	}
	switch out.Reason {
	case ReasonNoNextPage:
		c.logger.Info("no more pages available, crawl finished", fields...)
	case ReasonPageLimit:
		c.logger.Info("reached page limit, crawl finished", fields...)
	case ReasonRevisit:
		c.logger.Info("next page already visited, crawl finished", fields...)
	default:
		c.logger.Info("crawl stopped early", append(fields, zap.Error(out.Err))...)
	}
}

// String renders an outcome for summaries.
func (o Outcome) String() string {
	return fmt.Sprintf("%d records from %d pages (%s)", len(o.Records), o.Pages, o.Reason)
}
