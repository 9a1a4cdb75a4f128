package catalog

import (
	"context"

	"github.com/erp/urlsync/internal/domain/catalog"
)

// URLRewriteQueryService reads the rewrites served for a category
type URLRewriteQueryService struct {
	rewriteRepo catalog.URLRewriteRepository
}

// NewURLRewriteQueryService creates a new URLRewriteQueryService
func NewURLRewriteQueryService(rewriteRepo catalog.URLRewriteRepository) *URLRewriteQueryService {
	return &URLRewriteQueryService{rewriteRepo: rewriteRepo}
}

// ListForCategory returns the current rewrites and redirects of a category in one store
func (s *URLRewriteQueryService) ListForCategory(ctx context.Context, categoryID, storeID int64) ([]URLRewriteResponse, error) {
	rewrites, err := s.rewriteRepo.FindByEntity(ctx, catalog.EntityTypeCategory, categoryID, storeID)
	if err != nil {
		return nil, err
	}
	return ToURLRewriteResponses(rewrites), nil
}
