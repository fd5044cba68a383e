// Package browser manages the headless browser session used to render
// listing index pages. A Session exposes the handful of page operations the
// fetcher needs, so backends (chromedp, rod, plain HTTP) are interchangeable
// and tests can substitute a fake.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrLaunch wraps any failure to start a browser session.
	ErrLaunch = errors.New("browser launch failed")
	// ErrClosed is returned by driver calls made after Close.
	ErrClosed = errors.New("browser session closed")
)

// Driver is the page-level capability used by the fetcher.
type Driver interface {
	// Navigate loads url in the current page.
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until selector matches at least one element or timeout
	// elapses. A timeout is reported as found=false with a nil error.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) (bool, error)
	// ScrollHeight returns the document's current scroll height.
	ScrollHeight(ctx context.Context) (int64, error)
	// ScrollToBottom scrolls the viewport to the end of the document.
	ScrollToBottom(ctx context.Context) error
	// HTML returns the serialized DOM.
	HTML(ctx context.Context) (string, error)
}

// Session is a Driver bound to a running browser. Close terminates the
// browser and is safe to call more than once.
type Session interface {
	Driver
	Close() error
}

// Launcher starts sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Backend selects the browser implementation.
type Backend string

const (
	BackendChromedp Backend = "chromedp"
	BackendRod      Backend = "rod"
	BackendStatic   Backend = "static"
)

// Chrome user agent presented by every backend.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Config holds launcher settings shared by all backends.
type Config struct {
	Backend      Backend
	Headless     bool
	UserAgent    string
	ChromePath   string        // empty = search PATH and common install locations
	Stealth      bool          // install the stealth init scripts on every document
	Timeout      time.Duration // upper bound for a single HTTP request (static backend)
	WindowWidth  int
	WindowHeight int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendChromedp,
		Headless:     true,
		UserAgent:    defaultUserAgent,
		Timeout:      30 * time.Second,
		WindowWidth:  1920,
		WindowHeight: 1080,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.WindowWidth == 0 || c.WindowHeight == 0 {
		c.WindowWidth, c.WindowHeight = d.WindowWidth, d.WindowHeight
	}
	return c
}

// NewLauncher returns the launcher for cfg.Backend.
func NewLauncher(cfg Config) (Launcher, error) {
	cfg = cfg.withDefaults()
	switch cfg.Backend {
	case BackendChromedp:
		return NewChromedp(cfg), nil
	case BackendRod:
		return NewRod(cfg), nil
	case BackendStatic:
		return NewStatic(cfg), nil
	default:
		return nil, fmt.Errorf("unknown browser backend: %q", cfg.Backend)
	}
}

// launchError wraps err as ErrLaunch.
func launchError(backend Backend, err error) error {
	return fmt.Errorf("%w (%s): %w", ErrLaunch, backend, err)
}

// timedOut reports whether err is the expiry of a wait bounded by waitCtx
// rather than cancellation of the caller's ctx.
func timedOut(ctx, waitCtx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(waitCtx.Err(), context.DeadlineExceeded)
}
