// Package config loads expatscrape settings from flags, the environment,
// an optional YAML file and a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jmylchreest/expatscrape/pkg/browser"
	"github.com/jmylchreest/expatscrape/pkg/fetcher"
)

// EnvPrefix is prepended to every environment key, e.g. EXPATSCRAPE_DATA_DIR.
const EnvPrefix = "EXPATSCRAPE"

// FileName is the config file searched in the working and home directories.
const FileName = ".expatscrape"

// Config is the resolved application configuration.
type Config struct {
	DataDir      string        `mapstructure:"data_dir" validate:"required"`
	Browser      string        `mapstructure:"browser" validate:"oneof=chromedp rod static"`
	Headless     bool          `mapstructure:"headless"`
	Stealth      bool          `mapstructure:"stealth"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	WaitTimeout  time.Duration `mapstructure:"wait_timeout" validate:"gt=0"`
	SettleDelay  time.Duration `mapstructure:"settle_delay" validate:"gt=0"`
	MaxScrolls   int           `mapstructure:"max_scrolls" validate:"min=1,max=1000"`
	UserAgent    string        `mapstructure:"user_agent"`
	ChromePath   string        `mapstructure:"chrome_path"`
	PostgresDSN  string        `mapstructure:"postgres_dsn"`
	FeedbackFile string        `mapstructure:"feedback_file" validate:"required"`
	LogLevel     string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DataDir:      "data",
		Browser:      string(browser.BackendChromedp),
		Headless:     true,
		Timeout:      30 * time.Second,
		WaitTimeout:  fetcher.DefaultWaitTimeout,
		SettleDelay:  fetcher.DefaultSettleDelay,
		MaxScrolls:   fetcher.DefaultMaxScrolls,
		FeedbackFile: "evaluations.csv",
		LogLevel:     "info",
	}
}

// SetDefaults registers every key on v so that environment variables are
// picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("browser", d.Browser)
	v.SetDefault("headless", d.Headless)
	v.SetDefault("stealth", d.Stealth)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("wait_timeout", d.WaitTimeout)
	v.SetDefault("settle_delay", d.SettleDelay)
	v.SetDefault("max_scrolls", d.MaxScrolls)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("chrome_path", d.ChromePath)
	v.SetDefault("postgres_dsn", d.PostgresDSN)
	v.SetDefault("feedback_file", d.FeedbackFile)
	v.SetDefault("log_level", d.LogLevel)
}

// LoadOptions locates the config sources.
type LoadOptions struct {
	ConfigFile  string   // explicit file; disables the search
	SearchPaths []string // directories searched for .expatscrape.yaml
	EnvFiles    []string // dotenv files, missing ones are skipped
}

// Load resolves the configuration into v and validates it. Precedence is
// flags bound to v, then environment, then the config file, then defaults.
func Load(v *viper.Viper, opts LoadOptions) (*Config, error) {
	envFiles := opts.EnvFiles
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables already set in the process.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		for _, p := range opts.SearchPaths {
			v.AddConfigPath(p)
		}
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Browser = strings.ToLower(strings.TrimSpace(cfg.Browser))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", keyOf(fe.Field()), describe(fe)))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

var keys = map[string]string{
	"DataDir":      "data_dir",
	"Browser":      "browser",
	"Timeout":      "timeout",
	"WaitTimeout":  "wait_timeout",
	"SettleDelay":  "settle_delay",
	"MaxScrolls":   "max_scrolls",
	"FeedbackFile": "feedback_file",
	"LogLevel":     "log_level",
}

func keyOf(field string) string {
	if k, ok := keys[field]; ok {
		return k
	}
	return field
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}

// BrowserConfig converts to launcher settings.
func (c Config) BrowserConfig() browser.Config {
	bc := browser.DefaultConfig()
	bc.Backend = browser.Backend(c.Browser)
	bc.Headless = c.Headless
	bc.Stealth = c.Stealth
	bc.Timeout = c.Timeout
	bc.ChromePath = c.ChromePath
	if c.UserAgent != "" {
		bc.UserAgent = c.UserAgent
	}
	return bc
}

// FetchOptions converts to page loading settings.
func (c Config) FetchOptions() fetcher.Options {
	o := fetcher.DefaultOptions()
	o.WaitTimeout = c.WaitTimeout
	o.SettleDelay = c.SettleDelay
	o.MaxScrolls = c.MaxScrolls
	return o
}
