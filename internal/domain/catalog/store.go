package catalog

import (
	"fmt"
	"strings"
)

// Store is an independent URL scope rooted at one level-1 category
type Store struct {
	ID             int64  `gorm:"primaryKey;autoIncrement:false"`
	Code           string `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name           string `gorm:"type:varchar(255);not null"`
	RootCategoryID int64  `gorm:"not null;index"`
	IsActive       bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Store) TableName() string {
	return "stores"
}

// ScopePrefix returns the path prefix of categories visible in this store ("1/{root}/")
func (s Store) ScopePrefix() string {
	return fmt.Sprintf("%d/%d/", RootCategoryID, s.RootCategoryID)
}

// Contains reports whether the category lies strictly inside the store's root
func (s Store) Contains(c *Category) bool {
	return c != nil && strings.HasPrefix(c.Path, s.ScopePrefix())
}
