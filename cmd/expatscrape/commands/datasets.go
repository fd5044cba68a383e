package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/expatscrape/internal/output"
	"github.com/jmylchreest/expatscrape/internal/storage"
	"github.com/jmylchreest/expatscrape/pkg/dataset"
)

// Messages shown instead of an error for unreadable dataset files.
const (
	msgEmptyDataset     = "The selected file is empty or has no valid columns."
	msgMalformedDataset = "The selected file is not a valid dataset."
)

func newDatasetsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datasets",
		Aliases: []string{"ds"},
		Short:   "Browse stored datasets",
	}
	cmd.AddCommand(newDatasetsListCmd(a), newDatasetsShowCmd(a), newDatasetsStatsCmd(a))
	return cmd
}

func newDatasetsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "list [raw|cleaned]",
		Short:     "List stored dataset files",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"raw", "cleaned"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := []storage.Kind{storage.KindRaw, storage.KindCleaned}
			if len(args) == 1 {
				k, err := storage.ParseKind(args[0])
				if err != nil {
					return err
				}
				kinds = []storage.Kind{k}
			}

			store := storage.New(a.cfg.DataDir)
			var files []storage.FileInfo
			for _, k := range kinds {
				fs, err := store.List(k)
				if err != nil {
					return err
				}
				files = append(files, fs...)
			}
			if len(files) == 0 {
				a.logInfo("No datasets available in %s", a.cfg.DataDir)
				return nil
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tCATEGORY\tSIZE\tMODIFIED\tNAME")
			for _, f := range files {
				cat := "-"
				if f.Category.Valid() {
					cat = f.Category.Slug()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					f.Kind, cat, humanize.Bytes(uint64(f.Size)), humanize.Time(f.ModTime), f.Name)
			}
			return tw.Flush()
		},
	}
}

// readDataset resolves and reads name. ok is false when a user message was
// printed instead.
func (a *app) readDataset(name string) (ds *dataset.Dataset, ok bool, err error) {
	path, err := storage.New(a.cfg.DataDir).Resolve(name)
	if err != nil {
		return nil, false, err
	}
	ds, err = storage.Read(path)
	switch {
	case errors.Is(err, storage.ErrEmptyDataset):
		fmt.Fprintln(a.errOut, msgEmptyDataset)
		return nil, false, nil
	case errors.Is(err, storage.ErrMalformedDataset):
		fmt.Fprintln(a.errOut, msgMalformedDataset)
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return ds, true, nil
}

func newDatasetsShowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print a stored dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, ok, err := a.readDataset(args[0])
			if err != nil || !ok {
				return err
			}

			formatStr, _ := cmd.Flags().GetString("format")
			format, err := output.ParseFormat(formatStr)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			pretty, _ := cmd.Flags().GetBool("pretty")

			w, err := output.NewWriter(a.out, format, output.WithLimit(limit), output.WithPretty(pretty))
			if err != nil {
				return err
			}
			if err := w.Write(ds); err != nil {
				return err
			}
			return w.Close()
		},
	}
	cmd.Flags().String("format", "csv", "output format: csv, json, jsonl, yaml")
	cmd.Flags().Int("limit", 0, "print at most N rows (0 = all)")
	cmd.Flags().Bool("pretty", true, "indent JSON output")
	return cmd
}

func newDatasetsStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <file>",
		Short: "Describe a stored dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, ok, err := a.readDataset(args[0])
			if err != nil || !ok {
				return err
			}
			s := output.Summarize(ds)
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			return output.WriteSummary(a.out, s)
		},
	}
	cmd.Flags().Bool("json", false, "print statistics as JSON")
	return cmd
}
