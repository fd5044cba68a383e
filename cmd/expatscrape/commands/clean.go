package commands

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/expatscrape/internal/storage"
	"github.com/jmylchreest/expatscrape/pkg/cleaner"
)

func newCleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean <raw.csv>",
		Short: "Clean a stored raw dataset",
		Long: `Run the cleaning pipeline (dedup, price coercion, dedup) on a stored
raw dataset and write the result to the cleaned directory.

The argument is a path or a file name under the data directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := storage.New(a.cfg.DataDir)
			path, err := store.Resolve(args[0])
			if err != nil {
				return err
			}
			ds, err := storage.Read(path)
			if err != nil {
				return err
			}
			if !ds.Category.Valid() {
				return errors.New("cannot determine the dataset category from its header or file name")
			}

			cleaned, err := cleaner.Clean(ds)
			if err != nil {
				return fmt.Errorf("clean: %w", err)
			}
			out, err := store.WriteCleaned(cleaned, a.now())
			if err != nil {
				return err
			}

			a.logInfo("Kept %s of %s row(s)", humanize.Comma(int64(cleaned.Len())), humanize.Comma(int64(ds.Len())))
			fmt.Fprintln(a.out, out)
			return nil
		},
	}
}
