package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

const listingHTML = `<html><body>
<div class="listing-item"><span class="listing-item-title">Yamaha</span></div>
<div class="listing-item"><span class="listing-item-title">Honda</span></div>
</body></html>`

func newListingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(listingHTML))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func launchStatic(t *testing.T) Session {
	t.Helper()
	s, err := NewStatic(Config{}).Launch(context.Background())
	if err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// --- NewLauncher Tests ---

func TestNewLauncher(t *testing.T) {
	tests := []struct {
		backend Backend
		want    string
	}{
		{"", "*browser.ChromedpLauncher"},
		{BackendChromedp, "*browser.ChromedpLauncher"},
		{BackendRod, "*browser.RodLauncher"},
		{BackendStatic, "*browser.StaticLauncher"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			l, err := NewLauncher(Config{Backend: tt.backend})
			if err != nil {
				t.Fatalf("NewLauncher() error = %v", err)
			}
			var got string
			switch l.(type) {
			case *ChromedpLauncher:
				got = "*browser.ChromedpLauncher"
			case *RodLauncher:
				got = "*browser.RodLauncher"
			case *StaticLauncher:
				got = "*browser.StaticLauncher"
			}
			if got != tt.want {
				t.Errorf("NewLauncher(%q) = %s, want %s", tt.backend, got, tt.want)
			}
		})
	}
}

func TestNewLauncher_Unknown(t *testing.T) {
	if _, err := NewLauncher(Config{Backend: "firefox"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{Backend: BackendStatic}.withDefaults()
	if cfg.UserAgent == "" || cfg.Timeout == 0 || cfg.WindowWidth == 0 {
		t.Errorf("withDefaults() left zero values: %+v", cfg)
	}
	if cfg.Backend != BackendStatic {
		t.Errorf("withDefaults() overwrote backend: %q", cfg.Backend)
	}
}

// --- chromedp Tests ---

func TestChromedp_LaunchFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChromePath = filepath.Join(t.TempDir(), "no-such-chrome")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := NewChromedp(cfg).Launch(ctx)
	if !errors.Is(err, ErrLaunch) {
		t.Fatalf("expected ErrLaunch, got %v", err)
	}
	if s != nil {
		t.Error("expected nil session on launch failure")
	}
}

func TestStealthExecAllocatorOptions(t *testing.T) {
	opts := StealthExecAllocatorOptions(DefaultConfig())
	// headless, useAutomationExtension, window size, user agent + flags
	if want := 4 + len(StealthFlags()); len(opts) != want {
		t.Errorf("got %d options, want %d", len(opts), want)
	}
	if StealthFlags()["disable-blink-features"] != "AutomationControlled" {
		t.Error("automation blink feature must be disabled")
	}
}

func TestInitScripts(t *testing.T) {
	if got := InitScripts(DefaultConfig()); len(got) != 0 {
		t.Errorf("default launch should install no init scripts, got %d", len(got))
	}

	cfg := DefaultConfig()
	cfg.Stealth = true
	if got := InitScripts(cfg); len(got) != len(StealthScripts()) {
		t.Errorf("stealth launch should install %d scripts, got %d", len(StealthScripts()), len(got))
	}
	if DefaultConfig().Stealth {
		t.Error("stealth must be opt-in")
	}
}

func TestStealthScripts(t *testing.T) {
	scripts := StealthScripts()
	if len(scripts) != 2 {
		t.Fatalf("expected 2 scripts, got %d", len(scripts))
	}
	if !strings.Contains(scripts[1], "fr-FR") {
		t.Error("locale script should set a French locale")
	}
}

// --- FindChromePath Tests ---

func TestFindChromePath_Candidate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit not meaningful on windows")
	}
	bin := filepath.Join(t.TempDir(), "chromium")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	if got := FindChromePath("definitely-not-a-browser-binary", bin); got != bin {
		t.Errorf("FindChromePath() = %q, want %q", got, bin)
	}
}

func TestFindChromePath_NoneFound(t *testing.T) {
	if got := FindChromePath(filepath.Join(t.TempDir(), "missing")); got != "" {
		t.Errorf("FindChromePath() = %q, want empty", got)
	}
}

// --- static backend Tests ---

func TestStatic_NavigateAndWait(t *testing.T) {
	srv := newListingServer(t)
	s := launchStatic(t)
	ctx := context.Background()

	if err := s.Navigate(ctx, srv.URL+"/motos?page=1"); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}

	found, err := s.WaitFor(ctx, ".listing-item", time.Second)
	if err != nil || !found {
		t.Fatalf("WaitFor(.listing-item) = %v, %v; want true, nil", found, err)
	}

	found, err = s.WaitFor(ctx, ".no-such-thing", time.Second)
	if err != nil || found {
		t.Errorf("WaitFor(missing) = %v, %v; want false, nil", found, err)
	}

	html, err := s.HTML(ctx)
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if !strings.Contains(html, "Yamaha") {
		t.Errorf("HTML() missing listing content")
	}
}

func TestStatic_ScrollHeightStable(t *testing.T) {
	srv := newListingServer(t)
	s := launchStatic(t)
	ctx := context.Background()

	if err := s.Navigate(ctx, srv.URL); err != nil {
		t.Fatal(err)
	}
	h1, _ := s.ScrollHeight(ctx)
	if err := s.ScrollToBottom(ctx); err != nil {
		t.Fatal(err)
	}
	h2, _ := s.ScrollHeight(ctx)
	if h1 == 0 || h1 != h2 {
		t.Errorf("scroll height should be constant and non-zero: %d then %d", h1, h2)
	}
}

func TestStatic_RevisitSameURL(t *testing.T) {
	srv := newListingServer(t)
	s := launchStatic(t)

	for i := 0; i < 2; i++ {
		if err := s.Navigate(context.Background(), srv.URL); err != nil {
			t.Fatalf("visit %d: %v", i, err)
		}
	}
}

func TestStatic_HTTPError(t *testing.T) {
	srv := newListingServer(t)
	s := launchStatic(t)

	if err := s.Navigate(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("expected error for 404 page")
	}
}

func TestStatic_CloseIdempotent(t *testing.T) {
	s := launchStatic(t)

	if err := s.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if err := s.Navigate(context.Background(), "http://127.0.0.1/"); !errors.Is(err, ErrClosed) {
		t.Errorf("Navigate after Close = %v, want ErrClosed", err)
	}
}

func TestStatic_LaunchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewStatic(Config{}).Launch(ctx); !errors.Is(err, ErrLaunch) {
		t.Errorf("expected ErrLaunch, got %v", err)
	}
}
