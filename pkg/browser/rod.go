package browser

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/jmylchreest/expatscrape/internal/logger"
)

// RodLauncher starts Chrome through go-rod. With Config.Stealth the page is
// created with go-rod/stealth so the evasions are in place before the first
// navigation.
type RodLauncher struct {
	config Config
}

// NewRod creates a rod launcher.
func NewRod(cfg Config) *RodLauncher {
	return &RodLauncher{config: cfg.withDefaults()}
}

func (l *RodLauncher) Launch(ctx context.Context) (Session, error) {
	cfg := l.config

	lc := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		NoSandbox(true)
	for name, value := range StealthFlags() {
		if name == "no-sandbox" {
			continue
		}
		if value == "" {
			lc = lc.Set(flags.Flag(name))
		} else {
			lc = lc.Set(flags.Flag(name), value)
		}
	}
	if chromePath := cfg.ChromePath; chromePath != "" {
		lc = lc.Bin(chromePath)
	} else if found := FindChromePath(); found != "" {
		lc = lc.Bin(found)
	}

	logger.Debug("launching browser", "backend", BackendRod, "headless", cfg.Headless, "stealth", cfg.Stealth)

	controlURL, err := lc.Launch()
	if err != nil {
		return nil, launchError(BackendRod, err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		lc.Kill()
		return nil, launchError(BackendRod, err)
	}

	p, err := l.openPage(b)
	if err != nil {
		_ = b.Close()
		lc.Kill()
		return nil, launchError(BackendRod, err)
	}

	return &rodSession{launcher: lc, browser: b, page: p}, nil
}

func (l *RodLauncher) openPage(b *rod.Browser) (*rod.Page, error) {
	p, err := l.newPage(b)
	if err != nil {
		return nil, err
	}
	if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      l.config.UserAgent,
		AcceptLanguage: "fr-FR,fr;q=0.9,en;q=0.8",
	}); err != nil {
		return nil, err
	}
	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             l.config.WindowWidth,
		Height:            l.config.WindowHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, err
	}
	return p, nil
}

func (l *RodLauncher) newPage(b *rod.Browser) (*rod.Page, error) {
	if !l.config.Stealth {
		return b.Page(proto.TargetCreateTarget{})
	}
	// stealth.Page evaluates stealth.JS on new documents itself
	p, err := stealth.Page(b)
	if err != nil {
		return nil, err
	}
	if _, err := p.EvalOnNewDocument(localeScript); err != nil {
		return nil, err
	}
	return p, nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	mu       sync.Mutex
	closed   bool
	closeErr error
}

func (s *rodSession) pageFor(ctx context.Context) (*rod.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.page.Context(ctx), nil
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	p, err := s.pageFor(ctx)
	if err != nil {
		return err
	}
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (s *rodSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	p, err := s.pageFor(ctx)
	if err != nil {
		return false, err
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := p.Context(waitCtx).Element(selector); err != nil {
		if timedOut(ctx, waitCtx, err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *rodSession) ScrollHeight(ctx context.Context) (int64, error) {
	p, err := s.pageFor(ctx)
	if err != nil {
		return 0, err
	}
	res, err := p.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, err
	}
	return int64(res.Value.Int()), nil
}

func (s *rodSession) ScrollToBottom(ctx context.Context) error {
	p, err := s.pageFor(ctx)
	if err != nil {
		return err
	}
	_, err = p.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

func (s *rodSession) HTML(ctx context.Context) (string, error) {
	p, err := s.pageFor(ctx)
	if err != nil {
		return "", err
	}
	return p.HTML()
}

// Close closes the browser over CDP and kills the process regardless of the
// outcome.
func (s *rodSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.closeErr
	}
	s.closed = true
	s.closeErr = s.browser.Close()
	s.launcher.Kill()
	logger.Debug("browser closed", "backend", BackendRod)
	return s.closeErr
}
