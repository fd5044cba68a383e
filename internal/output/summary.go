package output

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/expatscrape/pkg/category"
	"github.com/jmylchreest/expatscrape/pkg/cleaner"
	"github.com/jmylchreest/expatscrape/pkg/dataset"
)

// Summary holds descriptive statistics of a dataset.
type Summary struct {
	Rows        int                `json:"rows"`
	Priced      int                `json:"priced"`
	Min         int64              `json:"min_price"`
	Max         int64              `json:"max_price"`
	Mean        float64            `json:"mean_price"`
	Median      float64            `json:"median_price"`
	ByState     map[string]int     `json:"by_state"`
	// MeanByBrand is empty for categories without a brand column.
	MeanByBrand map[string]float64 `json:"mean_price_by_brand"`
}

// Summarize counts rows and computes price statistics over rows whose price
// parses.
func Summarize(ds *dataset.Dataset) Summary {
	s := Summary{Rows: ds.Len(), ByState: make(map[string]int), MeanByBrand: make(map[string]float64)}

	type brandTotal struct {
		sum float64
		n   int
	}
	brands := make(map[string]*brandTotal)

	prices := make([]int64, 0, ds.Len())
	for _, r := range ds.Rows {
		if st := ds.Get(r, category.FieldState); st.Valid {
			s.ByState[st.String]++
		}
		p, err := cleaner.PriceOf(ds, r)
		if err != nil {
			continue
		}
		prices = append(prices, p)
		if b := ds.Get(r, category.FieldBrand); b.Valid {
			bt := brands[b.String]
			if bt == nil {
				bt = &brandTotal{}
				brands[b.String] = bt
			}
			bt.sum += float64(p)
			bt.n++
		}
	}
	for b, bt := range brands {
		s.MeanByBrand[b] = bt.sum / float64(bt.n)
	}
	if len(prices) == 0 {
		return s
	}

	sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })
	s.Priced = len(prices)
	s.Min, s.Max = prices[0], prices[len(prices)-1]

	var sum float64
	for _, p := range prices {
		sum += float64(p)
	}
	s.Mean = sum / float64(len(prices))

	mid := len(prices) / 2
	if len(prices)%2 == 0 {
		s.Median = (float64(prices[mid-1]) + float64(prices[mid])) / 2
	} else {
		s.Median = float64(prices[mid])
	}
	return s
}

// WriteSummary renders s as an aligned table.
func WriteSummary(w io.Writer, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Rows\t%s\n", humanize.Comma(int64(s.Rows)))
	fmt.Fprintf(tw, "Priced\t%s\n", humanize.Comma(int64(s.Priced)))
	if s.Priced > 0 {
		fmt.Fprintf(tw, "Min price\t%s\n", humanize.Comma(s.Min))
		fmt.Fprintf(tw, "Max price\t%s\n", humanize.Comma(s.Max))
		fmt.Fprintf(tw, "Mean price\t%s\n", humanize.CommafWithDigits(s.Mean, 0))
		fmt.Fprintf(tw, "Median price\t%s\n", humanize.CommafWithDigits(s.Median, 0))
	}

	states := make([]string, 0, len(s.ByState))
	for st := range s.ByState {
		states = append(states, st)
	}
	sort.Strings(states)
	for _, st := range states {
		fmt.Fprintf(tw, "State %s\t%s\n", st, humanize.Comma(int64(s.ByState[st])))
	}

	brands := make([]string, 0, len(s.MeanByBrand))
	for b := range s.MeanByBrand {
		brands = append(brands, b)
	}
	sort.Strings(brands)
	for _, b := range brands {
		fmt.Fprintf(tw, "Mean price %s\t%s\n", b, humanize.CommafWithDigits(s.MeanByBrand[b], 0))
	}
	return tw.Flush()
}
