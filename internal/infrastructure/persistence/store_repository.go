package persistence

import (
	"context"

	"github.com/erp/urlsync/internal/domain/catalog"
	"gorm.io/gorm"
)

// GormStoreRepository implements StoreRepository using GORM
type GormStoreRepository struct {
	db *gorm.DB
}

// NewGormStoreRepository creates a new GormStoreRepository
func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// FindAll lists the active stores ordered by id
func (r *GormStoreRepository) FindAll(ctx context.Context) ([]catalog.Store, error) {
	var stores []catalog.Store
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}
