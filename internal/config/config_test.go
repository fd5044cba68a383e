package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/jmylchreest/expatscrape/pkg/browser"
)

func load(t *testing.T, opts LoadOptions) (*Config, error) {
	t.Helper()
	if opts.SearchPaths == nil && opts.ConfigFile == "" {
		opts.SearchPaths = []string{t.TempDir()}
	}
	if opts.EnvFiles == nil {
		opts.EnvFiles = []string{filepath.Join(t.TempDir(), "missing.env")}
	}
	return Load(viper.New(), opts)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Defaults()
	if *cfg != want {
		t.Errorf("Load() = %+v, want %+v", *cfg, want)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := "data_dir: /srv/expat\nbrowser: Rod\nsettle_delay: 500ms\nmax_scrolls: 5\n"
	if err := os.WriteFile(filepath.Join(dir, FileName+".yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := load(t, LoadOptions{SearchPaths: []string{dir}})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != "/srv/expat" || cfg.Browser != "rod" || cfg.SettleDelay != 500*time.Millisecond || cfg.MaxScrolls != 5 {
		t.Errorf("Load() = %+v", *cfg)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("browser: rod\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EXPATSCRAPE_BROWSER", "static")
	t.Setenv("EXPATSCRAPE_WAIT_TIMEOUT", "3s")
	t.Setenv("EXPATSCRAPE_STEALTH", "true")

	cfg, err := load(t, LoadOptions{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Browser != "static" || cfg.WaitTimeout != 3*time.Second || !cfg.Stealth {
		t.Errorf("Load() = %+v", *cfg)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("EXPATSCRAPE_FEEDBACK_FILE=/tmp/notes.csv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// registered with t.Setenv so the value loaded from the file is cleaned up
	t.Setenv("EXPATSCRAPE_FEEDBACK_FILE", "")
	os.Unsetenv("EXPATSCRAPE_FEEDBACK_FILE")

	cfg, err := load(t, LoadOptions{EnvFiles: []string{envFile}})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FeedbackFile != "/tmp/notes.csv" {
		t.Errorf("FeedbackFile = %q", cfg.FeedbackFile)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := load(t, LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"unknown browser", func(c *Config) { c.Browser = "firefox" }, "browser"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"zero settle delay", func(c *Config) { c.SettleDelay = 0 }, "settle_delay"},
		{"no scrolls", func(c *Config) { c.MaxScrolls = 0 }, "max_scrolls"},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, "data_dir"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults()
			tt.mutate(&c)
			err := c.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q should name %s", err, tt.key)
			}
		})
	}

	if err := Defaults().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConverters(t *testing.T) {
	c := Defaults()
	c.Browser = "static"
	c.UserAgent = "test-agent"
	c.MaxScrolls = 7

	bc := c.BrowserConfig()
	if bc.Backend != browser.BackendStatic || bc.UserAgent != "test-agent" || !bc.Headless {
		t.Errorf("BrowserConfig() = %+v", bc)
	}
	if bc.WindowWidth == 0 {
		t.Error("window size should keep its default")
	}
	if bc.Stealth {
		t.Error("stealth should be off unless configured")
	}
	c.Stealth = true
	if !c.BrowserConfig().Stealth {
		t.Error("stealth setting should reach the launcher")
	}

	fo := c.FetchOptions()
	if fo.MaxScrolls != 7 || fo.WaitTimeout != c.WaitTimeout || fo.Clock == nil {
		t.Errorf("FetchOptions() = %+v", fo)
	}
}
