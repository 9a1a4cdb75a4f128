package catalog

import "context"

// CategoryFilter narrows a category listing
type CategoryFilter struct {
	IDs              []int64
	LevelGreaterThan *int
	PathPrefix       string
	// StoreID selects store-scoped names and url keys; GlobalScope reads the defaults
	StoreID int64
}

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// FindByID finds a category by its ID
	FindByID(ctx context.Context, id int64) (*Category, error)

	// FindByIDs loads categories with names and url keys of the given store
	FindByIDs(ctx context.Context, ids []int64, storeID int64) ([]Category, error)

	// FindByFilter lists categories matching the filter, ordered by path
	FindByFilter(ctx context.Context, filter CategoryFilter) ([]Category, error)

	// FindChildren finds all direct children of a category in sibling order
	FindChildren(ctx context.Context, parentID int64) ([]Category, error)

	// FindDescendants finds all categories below the given path
	FindDescendants(ctx context.Context, path string, storeID int64) ([]Category, error)

	// DescendantIDs returns the ids of all categories below the category
	DescendantIDs(ctx context.Context, category *Category, includeSelf bool) ([]int64, error)

	// SaveAll persists the given categories in one transaction
	SaveAll(ctx context.Context, categories []*Category) error
}

// StoreRepository lists store scopes
type StoreRepository interface {
	FindAll(ctx context.Context) ([]Store, error)
}

// URLRewriteRepository defines the interface for url rewrite persistence
type URLRewriteRepository interface {
	// DeleteMatching removes every rewrite matching all fields of the match
	DeleteMatching(ctx context.Context, match URLRewriteMatch) error

	// Replace inserts the rewrites, updating rows that already own the same request path in the store
	Replace(ctx context.Context, rewrites []URLRewrite) error

	// FindByEntity lists rewrites of one entity in one store
	FindByEntity(ctx context.Context, entityType string, entityID, storeID int64) ([]URLRewrite, error)
}

// URLPathRepository persists the cached url path attribute
type URLPathRepository interface {
	// DeleteForEntities removes global and store-scoped rows of the given categories
	DeleteForEntities(ctx context.Context, categoryIDs []int64) error

	// Save upserts url path rows
	Save(ctx context.Context, attrs []URLPathAttribute) error
}
