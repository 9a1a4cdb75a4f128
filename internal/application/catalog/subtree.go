package catalog

import (
	"context"
	"slices"

	"github.com/erp/urlsync/internal/domain/catalog"
)

// SubtreeCollector narrows changed ids to a store scope and expands them to
// the subtrees whose URLs depend on them
type SubtreeCollector struct {
	categoryRepo catalog.CategoryRepository
}

// NewSubtreeCollector creates a new SubtreeCollector
func NewSubtreeCollector(categoryRepo catalog.CategoryRepository) *SubtreeCollector {
	return &SubtreeCollector{categoryRepo: categoryRepo}
}

// Candidates returns the categories among ids that carry URLs.
// The synthetic root and store roots are dropped. With a store, only
// categories under that store's root are kept and their names and url keys
// are read in the store's scope; a nil store means the global scope.
func (c *SubtreeCollector) Candidates(ctx context.Context, ids []int64, store *catalog.Store) ([]catalog.Category, error) {
	if len(ids) == 0 {
		return []catalog.Category{}, nil
	}
	minLevel := catalog.StoreRootLevel
	filter := catalog.CategoryFilter{
		IDs:              ids,
		LevelGreaterThan: &minLevel,
		StoreID:          catalog.GlobalScope,
	}
	if store != nil {
		filter.PathPrefix = store.ScopePrefix()
		filter.StoreID = store.ID
	}
	return c.categoryRepo.FindByFilter(ctx, filter)
}

// Expand returns the category id followed by all of its descendant ids
func (c *SubtreeCollector) Expand(ctx context.Context, category *catalog.Category) ([]int64, error) {
	return c.categoryRepo.DescendantIDs(ctx, category, true)
}

// ExpandAll returns the sorted, duplicate-free union of Expand over the
// candidates of ids
func (c *SubtreeCollector) ExpandAll(ctx context.Context, ids []int64, store *catalog.Store) ([]int64, error) {
	candidates, err := c.Candidates(ctx, ids, store)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{})
	out := []int64{}
	for i := range candidates {
		expanded, err := c.Expand(ctx, &candidates[i])
		if err != nil {
			return nil, err
		}
		for _, id := range expanded {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out, nil
}
