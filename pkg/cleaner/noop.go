package cleaner

import "github.com/jmylchreest/expatscrape/pkg/dataset"

// NoopCleaner passes rows through without modification.
// Use it to persist a cleaned file that mirrors the raw one.
type NoopCleaner struct{}

// NewNoop creates a new no-op cleaner.
func NewNoop() *NoopCleaner {
	return &NoopCleaner{}
}

// Clean returns a copy of the input.
func (c *NoopCleaner) Clean(ds *dataset.Dataset) (*dataset.Dataset, error) {
	return ds.Clone(), nil
}

// Name returns the cleaner type.
func (c *NoopCleaner) Name() string {
	return "noop"
}
