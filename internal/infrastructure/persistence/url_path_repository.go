package persistence

import (
	"context"

	"github.com/erp/urlsync/internal/domain/catalog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormURLPathRepository stores the url path attribute of categories
type GormURLPathRepository struct {
	db *gorm.DB
}

// NewGormURLPathRepository creates a new GormURLPathRepository
func NewGormURLPathRepository(db *gorm.DB) *GormURLPathRepository {
	return &GormURLPathRepository{db: db}
}

// DeleteForEntities removes global and store-scoped rows of the given categories
func (r *GormURLPathRepository) DeleteForEntities(ctx context.Context, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("category_id IN ?", categoryIDs).
		Delete(&catalog.URLPathAttribute{}).Error
}

// Save upserts url path rows
func (r *GormURLPathRepository) Save(ctx context.Context, attrs []catalog.URLPathAttribute) error {
	if len(attrs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category_id"}, {Name: "store_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&attrs).Error
}
