// Package fetcher loads one listing index page into a set of item containers.
//
// Listing pages lazy-load cards as the viewport approaches the bottom, so a
// page is scrolled until its height stops growing before the DOM is parsed.
package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/expatscrape/internal/logger"
	"github.com/jmylchreest/expatscrape/pkg/browser"
	"github.com/jmylchreest/expatscrape/pkg/category"
)

// Defaults for Options.
const (
	DefaultWaitTimeout = 20 * time.Second
	DefaultSettleDelay = 2 * time.Second
	DefaultMaxScrolls  = 30
)

// Status describes how completely a page was loaded.
type Status int

const (
	// StatusOK means the page loaded and the scroll loop settled.
	StatusOK Status = iota
	// StatusEmpty means no listing container appeared before the wait timed out.
	StatusEmpty
	// StatusPartial means the page kept growing past MaxScrolls; the
	// containers present at that point are still returned.
	StatusPartial
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusPartial:
		return "partial"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Clock abstracts waiting so tests do not sleep.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock waits on a timer and returns early when ctx is done.
type RealClock struct{}

// Sleep blocks for d, returning ctx.Err() if ctx is done first.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Options controls page loading.
type Options struct {
	WaitTimeout time.Duration // how long to wait for the first container
	SettleDelay time.Duration // pause after each scroll
	MaxScrolls  int           // scroll iterations before giving up with StatusPartial
	Clock       Clock
}

// DefaultOptions returns the standard timings.
func DefaultOptions() Options {
	return Options{
		WaitTimeout: DefaultWaitTimeout,
		SettleDelay: DefaultSettleDelay,
		MaxScrolls:  DefaultMaxScrolls,
		Clock:       RealClock{},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = d.WaitTimeout
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = d.SettleDelay
	}
	if o.MaxScrolls <= 0 {
		o.MaxScrolls = d.MaxScrolls
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	return o
}

// Page is one loaded listing index page.
type Page struct {
	Category   category.Category
	Number     int
	URL        string
	Status     Status
	Scrolls    int
	Height     int64
	Containers []Container
}

// Container is one listing card. It is only meaningful while its page is.
type Container struct {
	Index int
	sel   *goquery.Selection
	base  *url.URL
}

// NewContainer wraps a selection. Links are left as written.
func NewContainer(index int, sel *goquery.Selection) Container {
	return Container{Index: index, sel: sel}
}

// ResolveURL makes ref absolute against the page the container was read
// from, the way a browser reports an element's src. Without a page URL, or
// when ref does not parse, ref is returned unchanged.
func (c Container) ResolveURL(ref string) string {
	if c.base == nil || ref == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.base.ResolveReference(u).String()
}

// Selection returns the underlying goquery selection, possibly nil.
func (c Container) Selection() *goquery.Selection {
	return c.sel
}

// Valid reports whether the container references a DOM node.
func (c Container) Valid() bool {
	return c.sel != nil && c.sel.Length() > 0
}

// Fetcher loads pages with a fixed set of options.
type Fetcher struct {
	opts Options
}

// New creates a fetcher. Zero or negative fields of opts take their defaults.
func New(opts Options) *Fetcher {
	return &Fetcher{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (f *Fetcher) Options() Options {
	return f.opts
}

// Load fetches page of cat with default options.
func Load(ctx context.Context, d browser.Driver, cat category.Category, page int) (Page, error) {
	return New(DefaultOptions()).Load(ctx, d, cat, page)
}

// Load navigates to the page, waits for listings, scrolls until the document
// stops growing and returns the containers in document order.
//
// A wait timeout is not an error: the page is returned with StatusEmpty.
func (f *Fetcher) Load(ctx context.Context, d browser.Driver, cat category.Category, page int) (Page, error) {
	pageURL := cat.URL(page)
	result := Page{Category: cat, Number: page, URL: pageURL}

	logger.Debug("page fetch starting", "category", cat, "page", page, "url", pageURL)

	if err := d.Navigate(ctx, pageURL); err != nil {
		return result, fmt.Errorf("navigate %s: %w", pageURL, err)
	}

	found, err := d.WaitFor(ctx, category.ContainerSelector, f.opts.WaitTimeout)
	if err != nil {
		return result, fmt.Errorf("wait for listings: %w", err)
	}
	if !found {
		logger.Warn("no listings before timeout", "category", cat, "page", page, "timeout", f.opts.WaitTimeout)
		result.Status = StatusEmpty
		return result, nil
	}

	status, scrolls, height, err := f.scroll(ctx, d)
	if err != nil {
		return result, err
	}
	result.Status, result.Scrolls, result.Height = status, scrolls, height

	html, err := d.HTML(ctx)
	if err != nil {
		return result, fmt.Errorf("read page html: %w", err)
	}
	containers, err := ParseContainersAt(html, pageURL)
	if err != nil {
		return result, fmt.Errorf("parse page html: %w", err)
	}
	result.Containers = containers
	if len(containers) == 0 {
		result.Status = StatusEmpty
	}

	logger.Debug("page fetch complete",
		"category", cat,
		"page", page,
		"status", result.Status,
		"scrolls", scrolls,
		"height", height,
		"containers", len(containers))
	if result.Status == StatusPartial {
		logger.Warn("page still growing after max scrolls",
			"category", cat, "page", page, "max_scrolls", f.opts.MaxScrolls)
	}
	return result, nil
}

// scroll repeats scroll-settle-measure until the height stops increasing or
// MaxScrolls is reached.
func (f *Fetcher) scroll(ctx context.Context, d browser.Driver) (Status, int, int64, error) {
	last, err := d.ScrollHeight(ctx)
	if err != nil {
		return StatusOK, 0, 0, fmt.Errorf("measure height: %w", err)
	}

	for n := 0; ; n++ {
		if n >= f.opts.MaxScrolls {
			return StatusPartial, n, last, nil
		}
		if err := d.ScrollToBottom(ctx); err != nil {
			return StatusOK, n, last, fmt.Errorf("scroll: %w", err)
		}
		if err := f.opts.Clock.Sleep(ctx, f.opts.SettleDelay); err != nil {
			return StatusOK, n, last, err
		}
		height, err := d.ScrollHeight(ctx)
		if err != nil {
			return StatusOK, n, last, fmt.Errorf("measure height: %w", err)
		}
		if height <= last {
			return StatusOK, n + 1, height, nil
		}
		last = height
	}
}

// ParseContainers returns every listing container in html, in document order.
func ParseContainers(html string) ([]Container, error) {
	return ParseContainersAt(html, "")
}

// ParseContainersAt is ParseContainers for a document loaded from pageURL.
// Relative links inside the containers resolve against pageURL, or against
// the document's <base href> when it has one.
func ParseContainersAt(html, pageURL string) ([]Container, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var base *url.URL
	if pageURL != "" {
		if base, err = url.Parse(pageURL); err != nil {
			return nil, fmt.Errorf("page url: %w", err)
		}
		if href, ok := doc.Find("head base[href]").First().Attr("href"); ok {
			if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
				base = base.ResolveReference(ref)
			}
		}
	}

	var out []Container
	doc.Find(category.ContainerSelector).Each(func(i int, s *goquery.Selection) {
		out = append(out, Container{Index: i, sel: s, base: base})
	})
	return out, nil
}
