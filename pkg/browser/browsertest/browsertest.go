// Package browsertest provides an in-memory browser.Session for tests.
package browsertest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/expatscrape/pkg/browser"
)

// Page is the canned content served for one URL.
type Page struct {
	HTML string
	// Heights are returned by successive ScrollHeight calls; the last value
	// repeats. When empty the height is len(HTML).
	Heights []int64
	// Err, when set, is returned by Navigate.
	Err error
}

// Session serves canned pages keyed by URL. Unknown URLs load an empty
// document.
type Session struct {
	Pages map[string]Page

	mu         sync.Mutex
	current    Page
	scrolls    int
	closed     bool
	visited    []string
	closeCalls int
}

// NewSession returns a session serving pages.
func NewSession(pages map[string]Page) *Session {
	if pages == nil {
		pages = make(map[string]Page)
	}
	return &Session{Pages: pages}
}

var _ browser.Session = (*Session)(nil)

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return browser.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.visited = append(s.visited, url)
	p := s.Pages[url]
	if p.Err != nil {
		return p.Err
	}
	s.current = p
	s.scrolls = 0
	return nil
}

func (s *Session) WaitFor(ctx context.Context, selector string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, browser.ErrClosed
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.current.HTML))
	if err != nil {
		return false, err
	}
	return doc.Find(selector).Length() > 0, nil
}

func (s *Session) ScrollHeight(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, browser.ErrClosed
	}
	h := s.current.Heights
	if len(h) == 0 {
		return int64(len(s.current.HTML)), nil
	}
	if s.scrolls >= len(h) {
		return h[len(h)-1], nil
	}
	return h[s.scrolls], nil
}

func (s *Session) ScrollToBottom(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return browser.ErrClosed
	}
	s.scrolls++
	return nil
}

func (s *Session) HTML(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", browser.ErrClosed
	}
	return s.current.HTML, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	s.closed = true
	return nil
}

// Visited returns the URLs navigated to, in order.
func (s *Session) Visited() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visited...)
}

// CloseCalls returns how many times Close was called.
func (s *Session) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Launcher hands out Session, or fails with Err.
type Launcher struct {
	Session *Session
	Err     error

	mu       sync.Mutex
	launches int
}

var _ browser.Launcher = (*Launcher)(nil)

func (l *Launcher) Launch(ctx context.Context) (browser.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches++
	if l.Err != nil {
		return nil, errors.Join(browser.ErrLaunch, l.Err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(browser.ErrLaunch, err)
	}
	if l.Session == nil {
		l.Session = NewSession(nil)
	}
	return l.Session, nil
}

// Launches returns how many times Launch was called.
func (l *Launcher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}
