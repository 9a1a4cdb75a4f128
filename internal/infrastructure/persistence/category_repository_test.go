package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/urlsync/internal/domain/catalog"
	"github.com/erp/urlsync/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCategoryRepository_FindByID(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	repo := NewGormCategoryRepository(db)
	ctx := context.Background()

	t.Run("finds existing category", func(t *testing.T) {
		c, err := repo.FindByID(ctx, 11)
		require.NoError(t, err)
		assert.Equal(t, "1/3/10/11", c.Path)
		assert.Equal(t, int64(10), *c.ParentID)
	})

	t.Run("returns ErrNotFound for unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, 999)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormCategoryRepository_FindByIDs(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	repo := NewGormCategoryRepository(db)
	ctx := context.Background()

	t.Run("applies store values", func(t *testing.T) {
		cs, err := repo.FindByIDs(ctx, []int64{11, 10}, 1)
		require.NoError(t, err)
		require.Len(t, cs, 2)
		assert.Equal(t, int64(10), cs[0].ID)
		assert.Equal(t, "herren", cs[0].URLKey)
		assert.Equal(t, "Herren", cs[0].Name)
		assert.Equal(t, "tops", cs[1].URLKey)
	})

	t.Run("global scope keeps defaults", func(t *testing.T) {
		cs, err := repo.FindByIDs(ctx, []int64{10}, catalog.GlobalScope)
		require.NoError(t, err)
		require.Len(t, cs, 1)
		assert.Equal(t, "men", cs[0].URLKey)
	})

	t.Run("empty ids skip the query", func(t *testing.T) {
		cs, err := repo.FindByIDs(ctx, nil, 1)
		require.NoError(t, err)
		assert.Empty(t, cs)
	})
}

func TestGormCategoryRepository_FindByFilter(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	repo := NewGormCategoryRepository(db)
	ctx := context.Background()
	level := catalog.StoreRootLevel

	t.Run("level and ids", func(t *testing.T) {
		cs, err := repo.FindByFilter(ctx, catalog.CategoryFilter{
			IDs:              []int64{1, 3, 10, 20},
			LevelGreaterThan: &level,
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{20, 10}, idsOf(cs))
	})

	t.Run("store scope", func(t *testing.T) {
		cs, err := repo.FindByFilter(ctx, catalog.CategoryFilter{
			LevelGreaterThan: &level,
			PathPrefix:       "1/3/",
			StoreID:          1,
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{10, 11, 12}, idsOf(cs))
		assert.Equal(t, "herren", cs[0].URLKey)
	})

	t.Run("explicit empty id list matches nothing", func(t *testing.T) {
		cs, err := repo.FindByFilter(ctx, catalog.CategoryFilter{IDs: []int64{}})
		require.NoError(t, err)
		assert.Empty(t, cs)
	})
}

func TestGormCategoryRepository_FindChildrenAndDescendants(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	repo := NewGormCategoryRepository(db)
	ctx := context.Background()

	children, err := repo.FindChildren(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 12}, idsOf(children))

	descendants, err := repo.FindDescendants(ctx, "1/3", 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 12, 11}, idsOf(descendants))
	assert.Equal(t, "herren", descendants[0].URLKey)

	root, err := repo.FindByID(ctx, 3)
	require.NoError(t, err)
	ids, err := repo.DescendantIDs(ctx, root, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{10, 11, 12}, ids)

	men, err := repo.FindByID(ctx, 10)
	require.NoError(t, err)
	ids, err = repo.DescendantIDs(ctx, men, true)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, ids)
}

func TestGormCategoryRepository_SaveAll(t *testing.T) {
	ctx := context.Background()

	t.Run("persists tree columns only", func(t *testing.T) {
		db := setupTestDB(t)
		seedCatalog(t, db)
		repo := NewGormCategoryRepository(db)

		men, err := repo.FindByID(ctx, 10)
		require.NoError(t, err)
		men.ParentID = ptr(int64(2))
		men.Path = "1/2/10"
		men.Position = 2
		men.Name = "ignored"

		require.NoError(t, repo.SaveAll(ctx, []*catalog.Category{men}))

		reloaded, err := repo.FindByID(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, "1/2/10", reloaded.Path)
		assert.Equal(t, int64(2), *reloaded.ParentID)
		assert.Equal(t, 2, reloaded.Position)
		assert.Equal(t, "Men", reloaded.Name)
	})

	t.Run("rolls back when a category is missing", func(t *testing.T) {
		db := setupTestDB(t)
		seedCatalog(t, db)
		repo := NewGormCategoryRepository(db)

		men, err := repo.FindByID(ctx, 10)
		require.NoError(t, err)
		men.Path = "1/2/10"
		ghost := &catalog.Category{ID: 404, Path: "1/404", Level: 1}

		err = repo.SaveAll(ctx, []*catalog.Category{men, ghost})
		assert.ErrorIs(t, err, shared.ErrNotFound)

		reloaded, err := repo.FindByID(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, "1/3/10", reloaded.Path)
	})

	t.Run("nothing to save", func(t *testing.T) {
		repo := NewGormCategoryRepository(setupTestDB(t))
		assert.NoError(t, repo.SaveAll(ctx, nil))
	})
}

func TestGormCategoryRepository_DatabaseErrors(t *testing.T) {
	ctx := context.Background()
	dbErr := errors.New("connection reset")

	t.Run("FindByID propagates query errors", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCategoryRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "catalog_categories" WHERE id = \$1`).
			WithArgs(int64(10), 1).
			WillReturnError(dbErr)

		_, err := repo.FindByID(ctx, 10)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SaveAll rolls back on update failure", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCategoryRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "catalog_categories" SET`).
			WillReturnError(dbErr)
		mock.ExpectRollback()

		err := repo.SaveAll(ctx, []*catalog.Category{{ID: 10, Path: "1/2/10", Level: 2}})
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store value lookup failure", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCategoryRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "catalog_categories" WHERE path LIKE \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "path", "level"}).AddRow(10, "1/3/10", 2))
		mock.ExpectQuery(`SELECT \* FROM "catalog_category_store_values"`).
			WillReturnError(dbErr)

		_, err := repo.FindDescendants(ctx, "1/3", 1)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
