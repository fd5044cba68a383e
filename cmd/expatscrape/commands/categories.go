package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/expatscrape/pkg/category"
)

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the scrapable categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tNAME\tURL\tFIELDS")
			for _, c := range category.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Slug(), c.DisplayName(), c.IndexURL(), strings.Join(c.Columns(), ","))
			}
			return tw.Flush()
		},
	}
}
