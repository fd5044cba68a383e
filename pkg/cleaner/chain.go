package cleaner

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/expatscrape/internal/logger"
	"github.com/jmylchreest/expatscrape/pkg/dataset"
)

// ChainCleaner applies multiple cleaners in sequence.
type ChainCleaner struct {
	cleaners []Cleaner
}

// NewChain creates a new cleaner that applies multiple cleaners in sequence.
// Cleaners are applied in the order provided.
//
// Example:
//
//	chain := cleaner.NewChain(
//	    cleaner.NewDedup(),
//	    cleaner.NewPriceCoercion(),
//	)
func NewChain(cleaners ...Cleaner) *ChainCleaner {
	return &ChainCleaner{
		cleaners: cleaners,
	}
}

// Clean applies all cleaners in sequence.
func (c *ChainCleaner) Clean(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, fmt.Errorf("clean: nil dataset")
	}
	out := ds.Clone()
	for _, cl := range c.cleaners {
		before := out.Len()
		next, err := cl.Clean(out)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cl.Name(), err)
		}
		out = next
		logger.Debug("cleaner step", "step", cl.Name(), "in", before, "out", out.Len())
	}
	return out, nil
}

// Name returns the names of all chained cleaners.
func (c *ChainCleaner) Name() string {
	names := make([]string, len(c.cleaners))
	for i, cl := range c.cleaners {
		names[i] = cl.Name()
	}
	return "chain(" + strings.Join(names, "->") + ")"
}
