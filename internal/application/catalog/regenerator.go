package catalog

import (
	"context"
	"fmt"

	"github.com/erp/urlsync/internal/domain/catalog"
	"go.uber.org/zap"
)

// DefaultCategoryURLSuffix is appended to generated category request paths
const DefaultCategoryURLSuffix = ".html"

// URLRegenerator computes and writes the current rewrites of a category
// subtree in one store
type URLRegenerator struct {
	categoryRepo catalog.CategoryRepository
	rewriteRepo  catalog.URLRewriteRepository
	urlPathRepo  catalog.URLPathRepository
	suffix       string
	logger       *zap.Logger
}

// NewURLRegenerator creates a new URLRegenerator
func NewURLRegenerator(
	categoryRepo catalog.CategoryRepository,
	rewriteRepo catalog.URLRewriteRepository,
	urlPathRepo catalog.URLPathRepository,
	logger *zap.Logger,
) *URLRegenerator {
	return &URLRegenerator{
		categoryRepo: categoryRepo,
		rewriteRepo:  rewriteRepo,
		urlPathRepo:  urlPathRepo,
		suffix:       DefaultCategoryURLSuffix,
		logger:       logger.Named("url_regenerator"),
	}
}

// WithSuffix overrides the request path suffix
func (g *URLRegenerator) WithSuffix(suffix string) *URLRegenerator {
	g.suffix = suffix
	return g
}

// Regenerate writes rewrites for the category and all its descendants.
// Failures are logged and reported in the result, never returned.
func (g *URLRegenerator) Regenerate(ctx context.Context, category *catalog.Category, store *catalog.Store) RegenerationResult {
	result := RegenerationResult{CategoryID: category.ID, StoreID: store.ID}

	rewrites, paths, err := g.generate(ctx, category, store)
	if err == nil {
		err = g.rewriteRepo.Replace(ctx, rewrites)
	}
	if err == nil {
		err = g.urlPathRepo.Save(ctx, paths)
	}
	if err != nil {
		g.logger.Error("Failed to regenerate category url rewrites",
			zap.Int64("category_id", category.ID),
			zap.Int64("store_id", store.ID),
			zap.Error(err),
		)
		result.Status = RegenerationFailed
		result.Err = err
		return result
	}

	result.Status = RegenerationSucceeded
	result.Rewrites = len(rewrites)
	return result
}

// generate builds one current rewrite and one url path row per node of the subtree
func (g *URLRegenerator) generate(ctx context.Context, category *catalog.Category, store *catalog.Store) ([]catalog.URLRewrite, []catalog.URLPathAttribute, error) {
	ancestors, err := g.categoryRepo.FindByIDs(ctx, category.AncestorIDs(), store.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load ancestors of category %d: %w", category.ID, err)
	}
	descendants, err := g.categoryRepo.FindDescendants(ctx, category.Path, store.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load descendants of category %d: %w", category.ID, err)
	}

	nodes := make([]*catalog.Category, 0, len(ancestors)+len(descendants)+1)
	self := *category
	nodes = append(nodes, &self)
	for i := range ancestors {
		nodes = append(nodes, &ancestors[i])
	}
	for i := range descendants {
		nodes = append(nodes, &descendants[i])
	}
	tree := catalog.NewTree(nodes...)

	rewrites := []catalog.URLRewrite{}
	paths := []catalog.URLPathAttribute{}
	for _, id := range tree.DescendantIDs(category.ID, true) {
		node, _ := tree.Get(id)
		if !node.RequiresURLRegeneration() {
			continue
		}
		urlPath, err := tree.URLPath(id)
		if err != nil {
			return nil, nil, err
		}
		rewrites = append(rewrites, catalog.NewCategoryRewrite(node, store.ID, urlPath, g.suffix))
		paths = append(paths, catalog.URLPathAttribute{CategoryID: id, StoreID: store.ID, Value: urlPath})
	}
	return rewrites, paths, nil
}
