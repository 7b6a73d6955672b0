package crawler

import "net/url"

// CrawlState is the controller's loop state. It is threaded through the
// crawl by value; every transition returns a new state. Copies share their
// backing storage, so only the most recent state may be used.
type CrawlState struct {
	// Visited counts next links followed (or refused by the page limit).
	Visited int
	// MaxPages bounds the crawl; zero or less means unbounded.
	MaxPages int
	// Fetched counts pages fetched successfully.
	Fetched int
	Records []Record
	Current *url.URL
	seen    map[string]struct{}
}

// NewCrawlState starts a crawl at seed.
func NewCrawlState(seed *url.URL, maxPages int) CrawlState {
	if maxPages < 0 {
		maxPages = 0
	}
	return CrawlState{
		MaxPages: maxPages,
		Current:  seed,
		seen:     map[string]struct{}{NormalizeURL(seed): {}},
	}
}

// Absorb records a successfully fetched page and appends its records after
// everything accumulated so far.
func (s CrawlState) Absorb(records []Record) CrawlState {
	s.Fetched++
	s.Records = append(s.Records, records...)
	return s
}

// Advance follows next. It reports false, with the reason, when the crawl
// must stop instead of fetching next.
func (s CrawlState) Advance(next *url.URL) (CrawlState, TerminationReason, bool) {
	s.Visited++
	if s.MaxPages > 0 && s.Visited >= s.MaxPages {
		return s, ReasonPageLimit, false
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
		if s.Current != nil {
			s.seen[NormalizeURL(s.Current)] = struct{}{}
		}
	}
	key := NormalizeURL(next)
	if _, dup := s.seen[key]; dup {
		return s, ReasonRevisit, false
	}
	s.seen[key] = struct{}{}
	s.Current = next
	return s, "", true
}

// Outcome converts a terminal state into the crawl's result.
func (s CrawlState) Outcome(reason TerminationReason, err error) Outcome {
	records := s.Records
	if records == nil {
		records = []Record{}
	}
	return Outcome{
		Records: records,
		Pages:   s.Fetched,
		Visited: s.Visited,
		Reason:  reason,
		Err:     err,
	}
}
