package browser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/expatscrape/internal/logger"
)

// StaticLauncher serves pages fetched over plain HTTP with colly. There is no
// JavaScript, so the document never grows and scrolling is a no-op.
type StaticLauncher struct {
	config    Config
	transport http.RoundTripper
}

// NewStatic creates a static launcher.
func NewStatic(cfg Config) *StaticLauncher {
	return &StaticLauncher{config: cfg.withDefaults()}
}

// WithTransport overrides the HTTP transport used by the collector.
func (l *StaticLauncher) WithTransport(rt http.RoundTripper) *StaticLauncher {
	l.transport = rt
	return l
}

func (l *StaticLauncher) Launch(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, launchError(BackendStatic, err)
	}

	c := colly.NewCollector(
		colly.UserAgent(l.config.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(l.config.Timeout)
	if l.transport != nil {
		c.WithTransport(l.transport)
	}

	logger.Debug("static session ready", "backend", BackendStatic, "timeout", l.config.Timeout)
	return &staticSession{collector: c}, nil
}

type staticSession struct {
	collector *colly.Collector

	mu     sync.Mutex
	html   string
	closed bool
}

func (s *staticSession) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		body     string
		fetchErr error
	)
	// Clone shares transport and limits but not callbacks.
	c := s.collector.Clone()
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.8")
	})
	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
		logger.Debug("static fetch response received",
			"status", r.StatusCode,
			"body_size", len(r.Body))
	})
	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = fmt.Errorf("fetch %s (status %d): %w", url, status, err)
	})

	if err := c.Visit(url); err != nil {
		return fmt.Errorf("failed to visit URL: %w", err)
	}
	if fetchErr != nil {
		return fetchErr
	}
	s.html = body
	return nil
}

func (s *staticSession) document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(s.html))
}

// WaitFor checks the fetched document once; the content cannot change.
func (s *staticSession) WaitFor(ctx context.Context, selector string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	doc, err := s.document()
	if err != nil {
		return false, err
	}
	return doc.Find(selector).Length() > 0, nil
}

func (s *staticSession) ScrollHeight(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return int64(len(s.html)), nil
}

func (s *staticSession) ScrollToBottom(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *staticSession) HTML(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	return s.html, nil
}

func (s *staticSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.html = ""
	return nil
}
