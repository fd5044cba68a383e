package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/expatscrape/internal/logger"
	"github.com/jmylchreest/expatscrape/internal/storage"
	"github.com/jmylchreest/expatscrape/pkg/category"
	"github.com/jmylchreest/expatscrape/pkg/dataset"
	"github.com/jmylchreest/expatscrape/pkg/scraper"
)

func newScrapeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape listing pages of one category",
		Long: `Scrape pages 1..N of a category, then store the raw rows and the
cleaned rows as timestamped CSV files under the data directory.

Examples:
  expatscrape scrape -c vehicles -p 2
  expatscrape scrape -c equipment -p 5 --browser rod
  expatscrape scrape -c motos -p 1 --postgres-dsn postgres://localhost/expat`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runScrape(cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringP("category", "c", "", "category: vehicles, motorcycles, equipment")
	flags.IntP("pages", "p", 1, "number of listing pages to scrape")
	flags.Bool("report", false, "print the run report as JSON on stdout")

	// Browser settings
	flags.String("browser", "", "browser backend: chromedp, rod, static")
	flags.Bool("headless", true, "run the browser without a window")
	flags.Bool("stealth", false, "install anti-bot evasion scripts in the browser")
	flags.String("chrome-path", "", "Chrome/Chromium binary (default: search PATH)")
	flags.String("user-agent", "", "override the browser user agent")
	flags.Duration("timeout", 0, "per-request timeout for the static backend")

	// Page loading
	flags.Duration("wait-timeout", 0, "how long to wait for listings to appear")
	flags.Duration("settle-delay", 0, "pause after each scroll")
	flags.Int("max-scrolls", 0, "scroll iterations before a page is reported partial")

	flags.String("postgres-dsn", "", "also upsert cleaned rows into PostgreSQL")

	_ = cmd.MarkFlagRequired("category")

	for key, name := range map[string]string{
		"browser":      "browser",
		"headless":     "headless",
		"stealth":      "stealth",
		"chrome_path":  "chrome-path",
		"user_agent":   "user-agent",
		"timeout":      "timeout",
		"wait_timeout": "wait-timeout",
		"settle_delay": "settle-delay",
		"max_scrolls":  "max-scrolls",
		"postgres_dsn": "postgres-dsn",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}
	return cmd
}

func (a *app) runScrape(cmd *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	name, _ := cmd.Flags().GetString("category")
	cat, err := category.Parse(name)
	if err != nil {
		return err
	}
	pages, _ := cmd.Flags().GetInt("pages")

	launcher, err := a.newLauncher(a.cfg.BrowserConfig())
	if err != nil {
		return err
	}

	orch := scraper.New(launcher, scraper.WithFetchOptions(a.cfg.FetchOptions()))

	a.logInfo("Scraping %d page(s) of %s...", pages, cat.DisplayName())
	res, err := orch.Run(ctx, cat, pages)
	if err != nil {
		logger.Error("scrape failed", "category", cat, "error", err)
		return err
	}
	r := res.Report

	if r.RowsExtracted == 0 {
		logger.Warn("no listings found", "category", cat, "pages", pages)
		a.logInfo("No data found for %s across %d page(s); nothing was saved", cat.DisplayName(), pages)
		if report, _ := cmd.Flags().GetBool("report"); report {
			return a.writeReport(cat, r, "", "", 0)
		}
		return nil
	}

	at := a.now()
	store := storage.New(a.cfg.DataDir)
	rawPath, err := store.WriteRaw(res.Dataset, at)
	if err != nil {
		return err
	}

	cleaned, err := orch.Clean(res.Dataset)
	if err != nil {
		return fmt.Errorf("clean: %w", err)
	}
	cleanPath, err := store.WriteCleaned(cleaned, at)
	if err != nil {
		return err
	}

	if a.cfg.PostgresDSN != "" {
		n, err := a.sinkPostgres(ctx, cleaned, at)
		if err != nil {
			return err
		}
		a.logInfo("Upserted %s row(s) into PostgreSQL", humanize.Comma(int64(n)))
	}

	a.logInfo("Scraped %s row(s) from %d page(s) in %s (%d empty, %d partial, %d failed)",
		humanize.Comma(int64(r.RowsExtracted)), r.PagesRequested,
		r.Duration.Round(time.Millisecond), r.PagesEmpty, r.PagesPartial, r.RowsFailed)
	a.logInfo("Kept %s of %s row(s) after cleaning",
		humanize.Comma(int64(cleaned.Len())), humanize.Comma(int64(res.Dataset.Len())))
	a.logInfo("Raw:     %s", rawPath)
	a.logInfo("Cleaned: %s", cleanPath)

	if report, _ := cmd.Flags().GetBool("report"); report {
		return a.writeReport(cat, r, rawPath, cleanPath, cleaned.Len())
	}
	return nil
}

// writeReport prints the run report as JSON. Durations are rendered in
// milliseconds and as a Go duration string.
func (a *app) writeReport(cat category.Category, r scraper.Report, rawPath, cleanPath string, cleanedRows int) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Category string `json:"category"`
		scraper.Report
		DurationMS  int64  `json:"duration_ms"`
		Duration    string `json:"duration"`
		RawFile     string `json:"raw_file,omitempty"`
		CleanedFile string `json:"cleaned_file,omitempty"`
		CleanedRows int    `json:"cleaned_rows"`
	}{
		Category:    cat.Slug(),
		Report:      r,
		DurationMS:  r.Duration.Milliseconds(),
		Duration:    r.Duration.Round(time.Millisecond).String(),
		RawFile:     rawPath,
		CleanedFile: cleanPath,
		CleanedRows: cleanedRows,
	})
}

func (a *app) sinkPostgres(ctx context.Context, ds *dataset.Dataset, at time.Time) (int, error) {
	sink, err := storage.NewPostgresSink(ctx, a.cfg.PostgresDSN)
	if err != nil {
		return 0, err
	}
	defer sink.Close()

	if err := sink.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	return sink.WriteBatch(ctx, ds, at)
}
