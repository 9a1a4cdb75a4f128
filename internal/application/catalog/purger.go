package catalog

import (
	"context"
	"fmt"

	"github.com/erp/urlsync/internal/domain/catalog"
	"go.uber.org/zap"
)

// StaleURLPurger deletes derived URL data of categories about to be regenerated
type StaleURLPurger struct {
	rewriteRepo catalog.URLRewriteRepository
	urlPathRepo catalog.URLPathRepository
	logger      *zap.Logger
}

// NewStaleURLPurger creates a new StaleURLPurger
func NewStaleURLPurger(rewriteRepo catalog.URLRewriteRepository, urlPathRepo catalog.URLPathRepository, logger *zap.Logger) *StaleURLPurger {
	return &StaleURLPurger{
		rewriteRepo: rewriteRepo,
		urlPathRepo: urlPathRepo,
		logger:      logger.Named("url_purger"),
	}
}

// PurgeURLPathAttribute removes the cached url path of the categories in every scope
func (p *StaleURLPurger) PurgeURLPathAttribute(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := p.urlPathRepo.DeleteForEntities(ctx, ids); err != nil {
		return fmt.Errorf("purge url path attribute: %w", err)
	}
	p.logger.Debug("Purged url path attribute", zap.Int64s("category_ids", ids))
	return nil
}

// PurgeURLRewrites removes the current category rewrites of ids in one store.
// Redirect entries are kept so old links keep resolving.
func (p *StaleURLPurger) PurgeURLRewrites(ctx context.Context, ids []int64, storeID int64) error {
	if len(ids) == 0 {
		return nil
	}
	match := catalog.URLRewriteMatch{
		EntityIDs:    ids,
		EntityType:   catalog.EntityTypeCategory,
		StoreID:      storeID,
		RedirectType: catalog.RedirectNone,
	}
	if err := p.rewriteRepo.DeleteMatching(ctx, match); err != nil {
		return fmt.Errorf("purge url rewrites for store %d: %w", storeID, err)
	}
	p.logger.Debug("Purged url rewrites",
		zap.Int64("store_id", storeID),
		zap.Int64s("category_ids", ids),
	)
	return nil
}
