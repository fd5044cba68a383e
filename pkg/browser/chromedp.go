package browser

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/expatscrape/internal/logger"
)

// ChromedpLauncher starts a Chrome process driven over the DevTools protocol.
type ChromedpLauncher struct {
	config Config
}

// NewChromedp creates a chromedp launcher.
func NewChromedp(cfg Config) *ChromedpLauncher {
	return &ChromedpLauncher{config: cfg.withDefaults()}
}

// Launch starts the browser eagerly, so a missing binary or a crash on start
// is reported here rather than on first navigation.
func (l *ChromedpLauncher) Launch(ctx context.Context) (Session, error) {
	cfg := l.config

	opts := append(chromedp.DefaultExecAllocatorOptions[:], StealthExecAllocatorOptions(cfg)...)

	chromePath := cfg.ChromePath
	if chromePath == "" {
		chromePath = FindChromePath()
	}
	if chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Printf("chromedp")))

	logger.Debug("launching browser",
		"backend", BackendChromedp,
		"headless", cfg.Headless,
		"chrome_path", chromePath,
		"stealth", cfg.Stealth)

	// Run starts the browser even with no scripts to install.
	if err := chromedp.Run(browserCtx, InjectScripts(InitScripts(cfg))); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, launchError(BackendChromedp, err)
	}

	return &chromedpSession{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}

type chromedpSession struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc

	once     sync.Once
	closeErr error
}

// run executes actions on the browser tab, aborting when ctx is done.
// Cancelling a child of the tab context aborts the actions without closing
// the tab.
func (s *chromedpSession) run(ctx context.Context, actions ...chromedp.Action) error {
	if s.ctx.Err() != nil {
		return ErrClosed
	}
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (s *chromedpSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromedpSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := s.run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery))
	if err == nil {
		return true, nil
	}
	if timedOut(ctx, waitCtx, err) {
		return false, nil
	}
	return false, err
}

func (s *chromedpSession) ScrollHeight(ctx context.Context) (int64, error) {
	var height int64
	err := s.run(ctx, chromedp.Evaluate(`document.body.scrollHeight`, &height))
	return height, err
}

func (s *chromedpSession) ScrollToBottom(ctx context.Context) error {
	return s.run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
}

func (s *chromedpSession) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Close shuts the browser down gracefully, then kills the process.
func (s *chromedpSession) Close() error {
	s.once.Do(func() {
		if err := chromedp.Cancel(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = err
		}
		s.cancelBrowser()
		s.cancelAlloc()
		logger.Debug("browser closed", "backend", BackendChromedp)
	})
	return s.closeErr
}
