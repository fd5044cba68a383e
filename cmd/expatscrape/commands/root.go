// Package commands implements the CLI commands for expatscrape.
package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/expatscrape/internal/config"
	"github.com/jmylchreest/expatscrape/internal/logger"
	"github.com/jmylchreest/expatscrape/pkg/browser"
)

// app carries the state shared by every command of one invocation.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	out    io.Writer
	errOut io.Writer

	// overridable in tests
	newLauncher func(browser.Config) (browser.Launcher, error)
	now         func() time.Time
	searchPaths []string
	envFiles    []string
}

func newApp() *app {
	a := &app{
		v:           viper.New(),
		out:         os.Stdout,
		errOut:      os.Stderr,
		newLauncher: browser.NewLauncher,
		now:         time.Now,
	}
	if home, err := os.UserHomeDir(); err == nil {
		a.searchPaths = append(a.searchPaths, home)
	}
	a.searchPaths = append(a.searchPaths, ".")
	return a
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "expatscrape",
		Short: "Scrape and clean expat-dakar.com listings",
		Long: `expatscrape collects vehicle, motorcycle and equipment listings from
expat-dakar.com, cleans them and stores raw and cleaned CSV datasets.

Examples:
  # Scrape three pages of motorcycles
  expatscrape scrape -c motorcycles -p 3

  # Re-clean a stored raw dataset
  expatscrape clean vehicles_20240309140507_raw.csv

  # Browse stored datasets
  expatscrape datasets list
  expatscrape datasets show equipment_20240309140507_clean.csv --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	// Global flags
	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default $HOME/.expatscrape.yaml)")
	pf.Bool("debug", false, "enable debug logging")
	pf.BoolP("quiet", "q", false, "suppress progress output")
	pf.Bool("log-json", false, "emit logs as JSON")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("data-dir", "", "directory holding raw/ and cleaned/ datasets")

	_ = a.v.BindPFlag("debug", pf.Lookup("debug"))
	_ = a.v.BindPFlag("quiet", pf.Lookup("quiet"))
	_ = a.v.BindPFlag("log_json", pf.Lookup("log-json"))
	_ = a.v.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("data_dir", pf.Lookup("data-dir"))

	root.AddCommand(
		newScrapeCmd(a),
		newCleanCmd(a),
		newDatasetsCmd(a),
		newFeedbackCmd(a),
		newCategoriesCmd(a),
		newVersionCmd(a),
	)
	return root
}

// init loads configuration and the logger before any command runs.
func (a *app) init(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(a.v, config.LoadOptions{
		ConfigFile:  cfgFile,
		SearchPaths: a.searchPaths,
		EnvFiles:    a.envFiles,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.v.GetBool("debug") {
		level = "debug"
	}
	logger.Init(logger.Options{
		Quiet:  a.v.GetBool("quiet"),
		JSON:   a.v.GetBool("log_json"),
		Level:  level,
		Output: a.errOut,
	})
	logger.Debug("configuration loaded", "data_dir", cfg.DataDir, "browser", cfg.Browser)
	return nil
}

// Execute runs the root command.
func Execute() error {
	a := newApp()
	if err := newRootCmd(a).Execute(); err != nil {
		a.logError("%v", err)
		return err
	}
	return nil
}

// logError prints an error message to stderr.
func (a *app) logError(format string, args ...any) {
	fmt.Fprintf(a.errOut, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func (a *app) logInfo(format string, args ...any) {
	if !a.v.GetBool("quiet") {
		fmt.Fprintf(a.errOut, format+"\n", args...)
	}
}
