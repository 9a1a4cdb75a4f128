package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/urlsync/internal/domain/catalog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func ptr[T any](v T) *T { return &v }

// setupTestDB opens a migrated in-memory database
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, (&Database{DB: db}).AutoMigrate())
	return db
}

// seedCatalog creates two stores and a small tree:
//
//	1 root
//	├── 2 store B root
//	│   └── 20 kids
//	└── 3 store A root
//	    ├── 10 men
//	    │   └── 11 tops
//	    └── 12 women
func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	categories := []catalog.Category{
		{ID: 1, Path: "1", Level: 0, Position: 0, ChildrenCount: 2, Name: "Root"},
		{ID: 2, ParentID: ptr(int64(1)), Path: "1/2", Level: 1, Position: 1, ChildrenCount: 1, Name: "Store B"},
		{ID: 3, ParentID: ptr(int64(1)), Path: "1/3", Level: 1, Position: 2, ChildrenCount: 2, Name: "Store A"},
		{ID: 10, ParentID: ptr(int64(3)), Path: "1/3/10", Level: 2, Position: 1, ChildrenCount: 1, Name: "Men", URLKey: "men"},
		{ID: 11, ParentID: ptr(int64(10)), Path: "1/3/10/11", Level: 3, Position: 1, Name: "Tops", URLKey: "tops"},
		{ID: 12, ParentID: ptr(int64(3)), Path: "1/3/12", Level: 2, Position: 2, Name: "Women", URLKey: "women"},
		{ID: 20, ParentID: ptr(int64(2)), Path: "1/2/20", Level: 2, Position: 1, Name: "Kids", URLKey: "kids"},
	}
	require.NoError(t, db.Create(&categories).Error)

	stores := []catalog.Store{
		{ID: 1, Code: "a", Name: "Store A", RootCategoryID: 3, IsActive: true},
		{ID: 2, Code: "b", Name: "Store B", RootCategoryID: 2, IsActive: true},
	}
	require.NoError(t, db.Create(&stores).Error)

	require.NoError(t, db.Create(&catalog.CategoryStoreValue{
		CategoryID: 10, StoreID: 1, Name: "Herren", URLKey: "herren",
	}).Error)
}

// newMockDB opens a GORM postgres connection backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return gormDB, mock, mockDB
}

func idsOf(categories []catalog.Category) []int64 {
	ids := make([]int64, len(categories))
	for i := range categories {
		ids[i] = categories[i].ID
	}
	return ids
}
