package persistence

import (
	"context"
	"errors"

	"github.com/erp/urlsync/internal/domain/catalog"
	"github.com/erp/urlsync/internal/domain/shared"
	"gorm.io/gorm"
)

// treeColumns are the columns a move rewrites
var treeColumns = []string{"parent_id", "path", "level", "position", "children_count"}

// GormCategoryRepository implements CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id int64) (*catalog.Category, error) {
	var category catalog.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

// FindByIDs loads categories with names and url keys of the given store
func (r *GormCategoryRepository) FindByIDs(ctx context.Context, ids []int64, storeID int64) ([]catalog.Category, error) {
	if len(ids) == 0 {
		return []catalog.Category{}, nil
	}
	var categories []catalog.Category
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("path").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return r.withStoreValues(ctx, categories, storeID)
}

// FindByFilter lists categories matching the filter, ordered by path
func (r *GormCategoryRepository) FindByFilter(ctx context.Context, filter catalog.CategoryFilter) ([]catalog.Category, error) {
	query := r.db.WithContext(ctx).Model(&catalog.Category{})
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return []catalog.Category{}, nil
		}
		query = query.Where("id IN ?", filter.IDs)
	}
	if filter.LevelGreaterThan != nil {
		query = query.Where("level > ?", *filter.LevelGreaterThan)
	}
	if filter.PathPrefix != "" {
		query = query.Where("path LIKE ?", filter.PathPrefix+"%")
	}

	var categories []catalog.Category
	if err := query.Order("path").Find(&categories).Error; err != nil {
		return nil, err
	}
	return r.withStoreValues(ctx, categories, filter.StoreID)
}

// FindChildren finds all direct children of a category in sibling order
func (r *GormCategoryRepository) FindChildren(ctx context.Context, parentID int64) ([]catalog.Category, error) {
	var categories []catalog.Category
	if err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("position ASC, id ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindDescendants finds all categories below the given path
func (r *GormCategoryRepository) FindDescendants(ctx context.Context, path string, storeID int64) ([]catalog.Category, error) {
	var categories []catalog.Category
	if err := r.db.WithContext(ctx).
		Where("path LIKE ?", path+"/%").
		Order("level ASC, position ASC, id ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return r.withStoreValues(ctx, categories, storeID)
}

// DescendantIDs returns the ids of all categories below the category
func (r *GormCategoryRepository) DescendantIDs(ctx context.Context, category *catalog.Category, includeSelf bool) ([]int64, error) {
	ids := []int64{}
	if includeSelf {
		ids = append(ids, category.ID)
	}
	var below []int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.Category{}).
		Where("path LIKE ?", category.Path+"/%").
		Order("path").
		Pluck("id", &below).Error; err != nil {
		return nil, err
	}
	return append(ids, below...), nil
}

// SaveAll persists the tree columns of the given categories in one transaction
func (r *GormCategoryRepository) SaveAll(ctx context.Context, categories []*catalog.Category) error {
	if len(categories) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range categories {
			result := tx.Model(c).Select(treeColumns).Updates(c)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.ErrNotFound
			}
		}
		return nil
	})
}

// withStoreValues overlays store-scoped names and url keys
func (r *GormCategoryRepository) withStoreValues(ctx context.Context, categories []catalog.Category, storeID int64) ([]catalog.Category, error) {
	if storeID == catalog.GlobalScope || len(categories) == 0 {
		return categories, nil
	}
	ids := make([]int64, len(categories))
	for i := range categories {
		ids[i] = categories[i].ID
	}
	var values []catalog.CategoryStoreValue
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND category_id IN ?", storeID, ids).
		Find(&values).Error; err != nil {
		return nil, err
	}
	byCategory := make(map[int64]catalog.CategoryStoreValue, len(values))
	for _, v := range values {
		byCategory[v.CategoryID] = v
	}
	for i := range categories {
		if v, ok := byCategory[categories[i].ID]; ok {
			categories[i].ApplyStoreValue(v)
		}
	}
	return categories, nil
}
