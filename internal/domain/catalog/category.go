package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// RootCategoryID is the id of the synthetic tree root every path starts with
	RootCategoryID int64 = 1

	// StoreRootLevel is the level of the per-store root categories ("1/{root}")
	StoreRootLevel = 1

	// InsertFirst passed as afterID places a moved category before its new siblings
	InsertFirst int64 = 0

	pathSeparator = "/"
)

// Category is a node of the catalog tree.
// Path is the materialized ancestor chain including the node itself ("1/2/10").
// Level is the number of path segments minus one, so the synthetic root has
// level 0 and store roots have level 1.
type Category struct {
	ID            int64     `gorm:"primaryKey;autoIncrement:false"`
	ParentID      *int64    `gorm:"index"`
	Path          string    `gorm:"type:varchar(255);not null;index"`
	Level         int       `gorm:"not null;default:0"`
	Position      int       `gorm:"not null;default:0"`
	ChildrenCount int       `gorm:"not null;default:0"`
	Name          string    `gorm:"type:varchar(255);not null"`
	URLKey        string    `gorm:"column:url_key;type:varchar(255)"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "catalog_categories"
}

// CategoryStoreValue overrides a category's name and url key in one store
type CategoryStoreValue struct {
	CategoryID int64  `gorm:"primaryKey;autoIncrement:false"`
	StoreID    int64  `gorm:"primaryKey;autoIncrement:false"`
	Name       string `gorm:"type:varchar(255)"`
	URLKey     string `gorm:"column:url_key;type:varchar(255)"`
}

// TableName returns the table name for GORM
func (CategoryStoreValue) TableName() string {
	return "catalog_category_store_values"
}

// ApplyStoreValue overlays non-empty store-scoped values on the category
func (c *Category) ApplyStoreValue(v CategoryStoreValue) {
	if v.Name != "" {
		c.Name = v.Name
	}
	if v.URLKey != "" {
		c.URLKey = v.URLKey
	}
}

// IsRoot returns true for the synthetic tree root
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// IsAncestorOf returns true if this category is a proper ancestor of other
func (c *Category) IsAncestorOf(other *Category) bool {
	if other == nil || other.Path == "" || c.Path == "" {
		return false
	}
	return strings.HasPrefix(other.Path, c.Path+pathSeparator)
}

// AncestorIDs returns the ids on the path above this category, root first
func (c *Category) AncestorIDs() []int64 {
	ids, err := ParsePath(c.Path)
	if err != nil || len(ids) <= 1 {
		return []int64{}
	}
	return ids[:len(ids)-1]
}

// ChildPath returns the path a child with the given id would have under c
func (c *Category) ChildPath(childID int64) string {
	return c.Path + pathSeparator + strconv.FormatInt(childID, 10)
}

// RequiresURLRegeneration reports whether the category sits below a store root.
// The synthetic root and the store roots never get URL rewrites.
func (c *Category) RequiresURLRegeneration() bool {
	return c.Level > StoreRootLevel
}

// ParsePath splits a materialized path into its ids
func ParsePath(path string) ([]int64, error) {
	if path == "" {
		return []int64{}, nil
	}
	parts := strings.Split(path, pathSeparator)
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid path segment %q in %q: %w", p, path, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseIDList parses a comma separated id list such as "10,11".
// Blank input yields an empty slice, never a slice holding a zero id.
func ParseIDList(s string) ([]int64, error) {
	ids := []int64{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid category id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
