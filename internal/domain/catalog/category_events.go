package catalog

import (
	"strconv"
	"strings"

	"github.com/erp/urlsync/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeCategory = "Category"

// Event type constants
const (
	EventTypeCategoryMoved      = "CategoryMoved"
	EventTypeCategoriesImported = "CategoriesImported"
)

// RegenerationTrigger is implemented by events that invalidate category URLs
type RegenerationTrigger interface {
	shared.DomainEvent
	AffectedCategoryIDs() []int64
}

// CategoryMovedEvent is published after a move has been committed
type CategoryMovedEvent struct {
	shared.BaseDomainEvent
	CategoryID  int64  `json:"category_id"`
	OldParentID *int64 `json:"old_parent_id,omitempty"`
	NewParentID int64  `json:"new_parent_id"`
	OldPath     string `json:"old_path"`
	NewPath     string `json:"new_path"`
}

// NewCategoryMovedEvent creates a new CategoryMovedEvent
func NewCategoryMovedEvent(category *Category, oldParentID *int64, oldPath string) *CategoryMovedEvent {
	newParentID := int64(0)
	if category.ParentID != nil {
		newParentID = *category.ParentID
	}
	return &CategoryMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCategoryMoved, AggregateTypeCategory, strconv.FormatInt(category.ID, 10)),
		CategoryID:      category.ID,
		OldParentID:     oldParentID,
		NewParentID:     newParentID,
		OldPath:         oldPath,
		NewPath:         category.Path,
	}
}

// AffectedCategoryIDs returns the moved category; descendants are expanded downstream
func (e *CategoryMovedEvent) AffectedCategoryIDs() []int64 {
	return []int64{e.CategoryID}
}

// CategoriesImportedEvent is published when an import batch finished writing categories
type CategoriesImportedEvent struct {
	shared.BaseDomainEvent
	CategoryIDs []int64 `json:"category_ids"`
	RequestKey  string  `json:"request_key,omitempty"`
}

// NewCategoriesImportedEvent creates a new CategoriesImportedEvent
func NewCategoriesImportedEvent(ids []int64) *CategoriesImportedEvent {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return &CategoriesImportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCategoriesImported, AggregateTypeCategory, strings.Join(parts, ",")),
		CategoryIDs:     ids,
	}
}

// WithIdempotencyKey tags the event with the key of the request that asked for it
func (e *CategoriesImportedEvent) WithIdempotencyKey(key string) *CategoriesImportedEvent {
	e.RequestKey = key
	return e
}

// IdempotencyKey returns the request key, or "" when the event was not tagged
func (e *CategoriesImportedEvent) IdempotencyKey() string {
	return e.RequestKey
}

// AffectedCategoryIDs returns the imported category ids
func (e *CategoriesImportedEvent) AffectedCategoryIDs() []int64 {
	return e.CategoryIDs
}
