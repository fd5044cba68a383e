package cleaner

import "github.com/jmylchreest/expatscrape/pkg/dataset"

// DedupCleaner removes rows identical to an earlier row across all columns.
// The first occurrence keeps its position.
type DedupCleaner struct{}

// NewDedup creates a deduplicating cleaner.
func NewDedup() *DedupCleaner {
	return &DedupCleaner{}
}

// Clean drops exact duplicates.
func (c *DedupCleaner) Clean(ds *dataset.Dataset) (*dataset.Dataset, error) {
	out := &dataset.Dataset{
		Category: ds.Category,
		Columns:  append([]string(nil), ds.Columns...),
		Rows:     make([]dataset.Row, 0, len(ds.Rows)),
	}
	seen := make(map[string]bool, len(ds.Rows))
	for _, r := range ds.Rows {
		k := r.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out.Rows = append(out.Rows, r.Clone())
	}
	return out, nil
}

// Name returns the cleaner type.
func (c *DedupCleaner) Name() string {
	return "dedup"
}
