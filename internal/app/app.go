// Package app wires the crawl pipeline and sinks for a single batch run.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/config"
	"github.com/JakeFAU/catalog-crawler/internal/crawler"
	"github.com/JakeFAU/catalog-crawler/internal/extract"
	collyfetcher "github.com/JakeFAU/catalog-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/catalog-crawler/internal/id/uuid"
	"github.com/JakeFAU/catalog-crawler/internal/logging"
	"github.com/JakeFAU/catalog-crawler/internal/metrics"
	"github.com/JakeFAU/catalog-crawler/internal/policy/ratelimit"
	"github.com/JakeFAU/catalog-crawler/internal/sink"
)

// App holds the collaborators of one crawl run.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	fetcher   crawler.Fetcher
	extractor crawler.Extractor
	resolver  crawler.Resolver
	sinks     []sink.Sink
	ids       *uuid.Generator
}

// Result summarizes a finished run.
type Result struct {
	RunID   string
	Outcome crawler.Outcome
	// SinkErr joins the failures of every sink that could not be written.
	SinkErr error
}

// New validates cfg and builds the fetcher, extractor, resolver and sinks.
// Destinations are parsed here so a bad output fails before any request is sent.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sinks, err := sink.FromDestinations(cfg.Output.Destinations, sink.Options{
		Table:           cfg.DB.Table,
		MaxConns:        cfg.DB.MaxConns,
		MaxConnLifetime: cfg.ConnLifetime(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init sinks: %w", err)
	}

	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: cfg.Crawler.RequestsPerSecond,
		Burst:             cfg.Crawler.Burst,
	})
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	}, limiter)

	return &App{
		cfg:       cfg,
		logger:    logger,
		fetcher:   fetcher,
		extractor: extract.NewExtractor(cfg.Crawler.Selectors, logger),
		resolver:  extract.NewResolver(cfg.Crawler.Selectors.Next, logger),
		sinks:     sinks,
		ids:       uuid.New(),
	}, nil
}

// Run crawls the configured catalog and hands the records to every sink.
// The error is non-nil when the seed page could not be fetched or any sink
// failed; Result is populated in both cases.
func (a *App) Run(ctx context.Context) (Result, error) {
	runID, err := a.ids.NewID()
	if err != nil {
		return Result{}, err
	}
	logger := logging.ForRun(a.logger, runID, a.cfg.Crawler.SeedURL)
	res := Result{RunID: runID}

	controller := crawler.NewController(a.fetcher, a.extractor, a.resolver, crawler.ControllerConfig{
		FetchTimeout: a.cfg.FetchTimeout(),
		UserAgent:    a.cfg.Crawler.UserAgent,
	}, logger)

	outcome, err := controller.Crawl(ctx, a.cfg.Crawler.SeedURL, a.cfg.Crawler.MaxPages)
	res.Outcome = outcome
	defer a.dumpMetrics(logger)
	if err != nil {
		return res, fmt.Errorf("crawl %s: %w", a.cfg.Crawler.SeedURL, err)
	}

	logger.Info("total records",
		zap.Int("records", len(outcome.Records)),
		zap.Int("pages", outcome.Pages),
		zap.String("reason", string(outcome.Reason)),
	)

	res.SinkErr = sink.WriteAll(ctx, a.sinks, outcome.Records)
	if res.SinkErr != nil {
		return res, fmt.Errorf("write records: %w", res.SinkErr)
	}
	return res, nil
}

func (a *App) dumpMetrics(logger *zap.Logger) {
	if a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		logger.Warn("failed to write metrics textfile", zap.String("path", a.cfg.Metrics.Textfile), zap.Error(err))
	}
}

// Close flushes the logger.
func (a *App) Close() {
	_ = a.logger.Sync()
}
