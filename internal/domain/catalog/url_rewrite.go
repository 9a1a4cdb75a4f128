package catalog

import (
	"fmt"
	"strconv"
)

// EntityTypeCategory is the url rewrite entity type for categories
const EntityTypeCategory = "category"

// RedirectType discriminates current rewrites from redirects
type RedirectType int

const (
	RedirectNone      RedirectType = 0
	RedirectPermanent RedirectType = 301
	RedirectTemporary RedirectType = 302
)

// IsRedirect returns true for historical redirect entries
func (r RedirectType) IsRedirect() bool {
	return r != RedirectNone
}

// URLRewrite maps a human-readable request path to an entity target in one store
type URLRewrite struct {
	ID              int64        `gorm:"primaryKey;autoIncrement"`
	EntityType      string       `gorm:"type:varchar(32);not null;index:idx_url_rewrite_entity,priority:1"`
	EntityID        int64        `gorm:"not null;index:idx_url_rewrite_entity,priority:2"`
	RequestPath     string       `gorm:"type:varchar(255);not null;uniqueIndex:idx_url_rewrite_request_store,priority:1"`
	TargetPath      string       `gorm:"type:varchar(255);not null"`
	RedirectType    RedirectType `gorm:"not null;default:0"`
	StoreID         int64        `gorm:"not null;uniqueIndex:idx_url_rewrite_request_store,priority:2;index:idx_url_rewrite_entity,priority:3"`
	IsAutogenerated bool         `gorm:"not null;default:true"`
	Description     string       `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (URLRewrite) TableName() string {
	return "url_rewrites"
}

// URLRewriteMatch selects rewrites for deletion
type URLRewriteMatch struct {
	EntityIDs    []int64
	EntityType   string
	StoreID      int64
	RedirectType RedirectType
}

// CategoryTargetPath returns the canonical internal target of a category page
func CategoryTargetPath(categoryID int64) string {
	return "catalog/category/view/id/" + strconv.FormatInt(categoryID, 10)
}

// NewCategoryRewrite builds the current rewrite for a category in a store
func NewCategoryRewrite(c *Category, storeID int64, urlPath, suffix string) URLRewrite {
	return URLRewrite{
		EntityType:      EntityTypeCategory,
		EntityID:        c.ID,
		RequestPath:     urlPath + suffix,
		TargetPath:      CategoryTargetPath(c.ID),
		RedirectType:    RedirectNone,
		StoreID:         storeID,
		IsAutogenerated: true,
	}
}

// GlobalScope is the store id of scope-agnostic attribute rows
const GlobalScope int64 = 0

// URLPathAttribute caches the computed url path of a category per scope
type URLPathAttribute struct {
	CategoryID int64  `gorm:"primaryKey;autoIncrement:false"`
	StoreID    int64  `gorm:"primaryKey;autoIncrement:false"`
	Value      string `gorm:"type:varchar(255);not null"`
}

// TableName returns the table name for GORM
func (URLPathAttribute) TableName() string {
	return "catalog_category_url_paths"
}

// String renders the attribute for logs
func (a URLPathAttribute) String() string {
	return fmt.Sprintf("%d@%d=%s", a.CategoryID, a.StoreID, a.Value)
}
