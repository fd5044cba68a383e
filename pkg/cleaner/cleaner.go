// Package cleaner provides interfaces and implementations for cleaning scraped datasets.
// Cleaners never synthesize rows: every output row derives from an input row,
// and relative order is preserved.
package cleaner

import "github.com/jmylchreest/expatscrape/pkg/dataset"

// Cleaner transforms a raw dataset into a cleaner one.
type Cleaner interface {
	// Clean returns a new dataset; the input is not modified.
	Clean(ds *dataset.Dataset) (*dataset.Dataset, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}

// Default returns the standard pipeline: drop exact duplicates, coerce the
// price column to an integer, then drop rows that became identical once
// their prices were normalized.
func Default() *ChainCleaner {
	return NewChain(NewDedup(), NewPriceCoercion(), NewDedup())
}

// Clean runs the default pipeline.
func Clean(ds *dataset.Dataset) (*dataset.Dataset, error) {
	return Default().Clean(ds)
}
