package fetcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmylchreest/expatscrape/pkg/browser/browsertest"
	"github.com/jmylchreest/expatscrape/pkg/category"
)

// fakeClock records requested sleeps without waiting.
type fakeClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
	err    error
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	return c.err
}

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(b)
}

func newFetcher(clock Clock) *Fetcher {
	return New(Options{
		WaitTimeout: time.Second,
		SettleDelay: 2 * time.Second,
		MaxScrolls:  5,
		Clock:       clock,
	})
}

func TestLoad_ContainersInDocumentOrder(t *testing.T) {
	html := loadFixture(t, "motorcycles_page1.html")
	url := category.Motorcycles.URL(1)
	s := browsertest.NewSession(map[string]browsertest.Page{
		url: {HTML: html, Heights: []int64{1000, 1800, 2400, 2400}},
	})
	clock := &fakeClock{}

	page, err := newFetcher(clock).Load(context.Background(), s, category.Motorcycles, 1)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if page.Status != StatusOK {
		t.Errorf("Status = %v, want ok", page.Status)
	}
	if len(page.Containers) != 3 {
		t.Fatalf("got %d containers, want 3", len(page.Containers))
	}
	for i, c := range page.Containers {
		if c.Index != i || !c.Valid() {
			t.Errorf("container %d: index=%d valid=%v", i, c.Index, c.Valid())
		}
	}
	if id, _ := page.Containers[2].Selection().Attr("data-id"); id != "103" {
		t.Errorf("last container data-id = %q, want 103", id)
	}
	if got := s.Visited(); len(got) != 1 || got[0] != url {
		t.Errorf("visited = %v, want [%s]", got, url)
	}
}

func TestLoad_ScrollUntilStable(t *testing.T) {
	tests := []struct {
		name        string
		heights     []int64
		wantScrolls int
		wantStatus  Status
	}{
		{"constant height", []int64{900}, 1, StatusOK},
		{"grows twice", []int64{1000, 1500, 2000, 2000}, 3, StatusOK},
		{"shrinks", []int64{1000, 800}, 1, StatusOK},
		{"never settles", []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}, 5, StatusPartial},
	}

	html := loadFixture(t, "motorcycles_page1.html")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := browsertest.NewSession(map[string]browsertest.Page{
				category.Motorcycles.URL(1): {HTML: html, Heights: tt.heights},
			})
			clock := &fakeClock{}

			page, err := newFetcher(clock).Load(context.Background(), s, category.Motorcycles, 1)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if page.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", page.Status, tt.wantStatus)
			}
			if page.Scrolls != tt.wantScrolls {
				t.Errorf("Scrolls = %d, want %d", page.Scrolls, tt.wantScrolls)
			}
			if len(clock.sleeps) != tt.wantScrolls {
				t.Errorf("slept %d times, want %d", len(clock.sleeps), tt.wantScrolls)
			}
			for _, d := range clock.sleeps {
				if d != 2*time.Second {
					t.Errorf("settle delay = %v, want 2s", d)
				}
			}
			if len(page.Containers) != 3 {
				t.Errorf("partial pages should still return containers, got %d", len(page.Containers))
			}
		})
	}
}

func TestLoad_EmptyOnTimeout(t *testing.T) {
	url := category.Vehicles.URL(7)
	s := browsertest.NewSession(map[string]browsertest.Page{
		url: {HTML: "<html><body><p>Aucune annonce</p></body></html>"},
	})
	clock := &fakeClock{}

	page, err := newFetcher(clock).Load(context.Background(), s, category.Vehicles, 7)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if page.Status != StatusEmpty {
		t.Errorf("Status = %v, want empty", page.Status)
	}
	if len(page.Containers) != 0 {
		t.Errorf("expected no containers, got %d", len(page.Containers))
	}
	if len(clock.sleeps) != 0 {
		t.Error("empty page should not be scrolled")
	}
}

func TestLoad_NavigateError(t *testing.T) {
	boom := errors.New("net::ERR_NAME_NOT_RESOLVED")
	s := browsertest.NewSession(map[string]browsertest.Page{
		category.Equipment.URL(1): {Err: boom},
	})

	_, err := newFetcher(&fakeClock{}).Load(context.Background(), s, category.Equipment, 1)
	if !errors.Is(err, boom) {
		t.Errorf("expected navigate error, got %v", err)
	}
}

func TestLoad_ClockCancelled(t *testing.T) {
	html := loadFixture(t, "motorcycles_page1.html")
	s := browsertest.NewSession(map[string]browsertest.Page{
		category.Motorcycles.URL(1): {HTML: html},
	})
	clock := &fakeClock{err: context.Canceled}

	_, err := newFetcher(clock).Load(context.Background(), s, category.Motorcycles, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOptions_Defaults(t *testing.T) {
	f := New(Options{})
	o := f.Options()
	if o.WaitTimeout != 20*time.Second {
		t.Errorf("WaitTimeout = %v, want 20s", o.WaitTimeout)
	}
	if o.SettleDelay != 2*time.Second {
		t.Errorf("SettleDelay = %v, want 2s", o.SettleDelay)
	}
	if o.MaxScrolls != DefaultMaxScrolls {
		t.Errorf("MaxScrolls = %d, want %d", o.MaxScrolls, DefaultMaxScrolls)
	}
	if _, ok := o.Clock.(RealClock); !ok {
		t.Errorf("Clock = %T, want RealClock", o.Clock)
	}
}

func TestRealClock_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := (RealClock{}).Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep() should return promptly on cancel")
	}
}

func TestParseContainers(t *testing.T) {
	cs, err := ParseContainers(`<div><div class="listing-item">a</div><p class="listing-item">b</p></div>`)
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 2 {
		t.Fatalf("got %d containers, want 2", len(cs))
	}
	if (Container{}).Valid() {
		t.Error("zero Container should be invalid")
	}
}

func TestContainer_ResolveURL(t *testing.T) {
	const page = "https://www.expat-dakar.com/motos-scooters?page=2"
	tests := []struct {
		name, html, ref, want string
	}{
		{"root relative", `<div class="listing-item"></div>`, "/uploads/x.jpg", "https://www.expat-dakar.com/uploads/x.jpg"},
		{"protocol relative", `<div class="listing-item"></div>`, "//cdn.expat-dakar.com/y.jpg", "https://cdn.expat-dakar.com/y.jpg"},
		{"absolute", `<div class="listing-item"></div>`, "http://img.example/z.jpg", "http://img.example/z.jpg"},
		{"path relative", `<div class="listing-item"></div>`, "thumbs/a.jpg", "https://www.expat-dakar.com/thumbs/a.jpg"},
		{"base href", `<html><head><base href="https://static.expat-dakar.com/m/"></head><body><div class="listing-item"></div></body></html>`, "b.jpg", "https://static.expat-dakar.com/m/b.jpg"},
		{"empty", `<div class="listing-item"></div>`, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := ParseContainersAt(tt.html, page)
			if err != nil {
				t.Fatal(err)
			}
			if len(cs) != 1 {
				t.Fatalf("got %d containers, want 1", len(cs))
			}
			if got := cs[0].ResolveURL(tt.ref); got != tt.want {
				t.Errorf("ResolveURL(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}

	if got := (Container{}).ResolveURL("/x.jpg"); got != "/x.jpg" {
		t.Errorf("zero Container ResolveURL = %q, want ref unchanged", got)
	}
}

func TestLoad_ContainersResolveAgainstPageURL(t *testing.T) {
	pageURL := category.Equipment.URL(3)
	s := browsertest.NewSession(map[string]browsertest.Page{
		pageURL: {HTML: `<div class="listing-item"><img src="/uploads/x.jpg"></div>`, Heights: []int64{500, 500}},
	})

	page, err := newFetcher(&fakeClock{}).Load(context.Background(), s, category.Equipment, 3)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(page.Containers) != 1 {
		t.Fatalf("got %d containers, want 1", len(page.Containers))
	}
	if got := page.Containers[0].ResolveURL("/uploads/x.jpg"); got != "https://www.expat-dakar.com/uploads/x.jpg" {
		t.Errorf("ResolveURL = %q", got)
	}
}

func TestStatus_String(t *testing.T) {
	for s, want := range map[Status]string{StatusOK: "ok", StatusEmpty: "empty", StatusPartial: "partial", Status(9): "Status(9)"} {
		if got := s.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
