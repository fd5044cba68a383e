// Package scraper runs a full scrape of one category: it launches a browser
// session, loads pages 1..N in order, extracts every container and returns
// the raw dataset together with a report of what was skipped.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmylchreest/expatscrape/internal/logger"
	"github.com/jmylchreest/expatscrape/pkg/browser"
	"github.com/jmylchreest/expatscrape/pkg/category"
	"github.com/jmylchreest/expatscrape/pkg/cleaner"
	"github.com/jmylchreest/expatscrape/pkg/dataset"
	"github.com/jmylchreest/expatscrape/pkg/extractor"
	"github.com/jmylchreest/expatscrape/pkg/fetcher"
)

// ErrInvalidRequest is returned for a non-positive page count or an
// unregistered category. No browser is launched.
var ErrInvalidRequest = errors.New("invalid scrape request")

// Failure records one container that produced no row.
type Failure struct {
	Page   int    `json:"page"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Report summarizes a run.
type Report struct {
	Category       category.Category `json:"-"`
	PagesRequested int               `json:"pages_requested"`
	PagesEmpty     int               `json:"pages_empty"`
	PagesPartial   int               `json:"pages_partial"`
	RowsExtracted  int               `json:"rows_extracted"`
	RowsFailed     int               `json:"rows_failed"`
	Failures       []Failure         `json:"failures,omitempty"`
	Duration       time.Duration     `json:"-"`
}

// Result is the outcome of a successful run.
type Result struct {
	Dataset *dataset.Dataset
	Report  Report
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFetchOptions sets page loading timings.
func WithFetchOptions(opts fetcher.Options) Option {
	return func(o *Orchestrator) {
		clock := o.fetchOpts.Clock
		o.fetchOpts = opts
		if opts.Clock == nil {
			o.fetchOpts.Clock = clock
		}
	}
}

// WithClock replaces the clock used for settle delays.
func WithClock(c fetcher.Clock) Option {
	return func(o *Orchestrator) {
		o.fetchOpts.Clock = c
	}
}

// WithCleaner replaces the cleaning pipeline used by CleanData.
func WithCleaner(c cleaner.Cleaner) Option {
	return func(o *Orchestrator) {
		o.cleaner = c
	}
}

// Orchestrator drives scrapes. It holds no session between runs.
type Orchestrator struct {
	launcher   browser.Launcher
	fetchOpts  fetcher.Options
	cleaner    cleaner.Cleaner
	extractors func(category.Category) (extractor.Extractor, error)
}

// New creates an orchestrator that starts sessions with launcher.
func New(launcher browser.Launcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		launcher:   launcher,
		fetchOpts:  fetcher.DefaultOptions(),
		cleaner:    cleaner.Default(),
		extractors: extractor.For,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run scrapes pages 1..pages of cat.
//
// The session is closed before Run returns, on every path. Any error from
// the page loop discards the rows collected so far.
func (o *Orchestrator) Run(ctx context.Context, cat category.Category, pages int) (*Result, error) {
	if pages < 1 {
		return nil, fmt.Errorf("%w: pages must be >= 1, got %d", ErrInvalidRequest, pages)
	}
	ex, err := o.extractors(cat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	start := time.Now()
	log := logger.Component("scraper").With("category", cat)
	log.Info("scrape starting", "pages", pages)

	session, err := o.launcher.Launch(ctx)
	if err != nil {
		if !errors.Is(err, browser.ErrLaunch) {
			err = fmt.Errorf("%w: %w", browser.ErrLaunch, err)
		}
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("browser close failed", "error", cerr)
		}
	}()

	f := fetcher.New(o.fetchOpts)
	ds := dataset.New(cat)
	report := Report{Category: cat, PagesRequested: pages}

	for n := 1; n <= pages; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := f.Load(ctx, session, cat, n)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}

		switch page.Status {
		case fetcher.StatusEmpty:
			report.PagesEmpty++
			continue
		case fetcher.StatusPartial:
			report.PagesPartial++
		}

		before := ds.Len()
		for _, c := range page.Containers {
			row, err := ex.Extract(c)
			if err != nil {
				report.RowsFailed++
				report.Failures = append(report.Failures, Failure{Page: n, Index: c.Index, Reason: err.Error()})
				continue
			}
			ds.Append(row)
		}
		report.RowsExtracted += ds.Len() - before

		log.Debug("page extracted",
			"page", n,
			"status", page.Status,
			"containers", len(page.Containers),
			"rows", ds.Len()-before)
	}

	report.Duration = time.Since(start)
	log.Info("scrape complete",
		"rows", report.RowsExtracted,
		"failed", report.RowsFailed,
		"empty_pages", report.PagesEmpty,
		"partial_pages", report.PagesPartial,
		"duration", report.Duration)

	return &Result{Dataset: ds, Report: report}, nil
}

// Clean runs the configured cleaning pipeline on ds.
func (o *Orchestrator) Clean(ds *dataset.Dataset) (*dataset.Dataset, error) {
	return o.cleaner.Clean(ds)
}

// Scraper binds an orchestrator to one category.
type Scraper struct {
	category     category.Category
	orchestrator *Orchestrator
}

// NewScraper creates a scraper for cat.
func NewScraper(cat category.Category, launcher browser.Launcher, opts ...Option) *Scraper {
	return &Scraper{category: cat, orchestrator: New(launcher, opts...)}
}

// Category returns the bound category.
func (s *Scraper) Category() category.Category {
	return s.category
}

// Scrape returns the raw dataset for pages 1..pages.
func (s *Scraper) Scrape(ctx context.Context, pages int) (*dataset.Dataset, error) {
	res, err := s.orchestrator.Run(ctx, s.category, pages)
	if err != nil {
		return nil, err
	}
	return res.Dataset, nil
}

// CleanData deduplicates ds and normalizes its prices.
func (s *Scraper) CleanData(ds *dataset.Dataset) (*dataset.Dataset, error) {
	return s.orchestrator.Clean(ds)
}
