package persistence

import (
	"context"

	"github.com/erp/urlsync/internal/domain/catalog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormURLRewriteRepository implements URLRewriteRepository using GORM
type GormURLRewriteRepository struct {
	db *gorm.DB
}

// NewGormURLRewriteRepository creates a new GormURLRewriteRepository
func NewGormURLRewriteRepository(db *gorm.DB) *GormURLRewriteRepository {
	return &GormURLRewriteRepository{db: db}
}

// DeleteMatching removes every rewrite matching all fields of the match
func (r *GormURLRewriteRepository) DeleteMatching(ctx context.Context, match catalog.URLRewriteMatch) error {
	if len(match.EntityIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id IN ? AND store_id = ? AND redirect_type = ?",
			match.EntityType, match.EntityIDs, match.StoreID, match.RedirectType).
		Delete(&catalog.URLRewrite{}).Error
}

// Replace inserts the rewrites. A row already owning the same request path in
// the same store is taken over by the new entity.
func (r *GormURLRewriteRepository) Replace(ctx context.Context, rewrites []catalog.URLRewrite) error {
	if len(rewrites) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "request_path"}, {Name: "store_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"entity_type", "entity_id", "target_path", "redirect_type", "is_autogenerated", "description",
			}),
		}).
		Create(&rewrites).Error
}

// FindByEntity lists rewrites of one entity in one store ordered by request path
func (r *GormURLRewriteRepository) FindByEntity(ctx context.Context, entityType string, entityID, storeID int64) ([]catalog.URLRewrite, error) {
	var rewrites []catalog.URLRewrite
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ? AND store_id = ?", entityType, entityID, storeID).
		Order("request_path").
		Find(&rewrites).Error; err != nil {
		return nil, err
	}
	return rewrites, nil
}
