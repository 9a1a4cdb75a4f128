package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/urlsync/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStaleURLPurger_PurgeURLRewrites(t *testing.T) {
	rewrites := newMemRewriteRepo(
		catalog.URLRewrite{EntityType: catalog.EntityTypeCategory, EntityID: 10, RequestPath: "men.html", StoreID: 2},
		catalog.URLRewrite{EntityType: catalog.EntityTypeCategory, EntityID: 10, RequestPath: "old-men.html", StoreID: 2, RedirectType: catalog.RedirectPermanent},
		catalog.URLRewrite{EntityType: catalog.EntityTypeCategory, EntityID: 10, RequestPath: "men.html", StoreID: 1},
		catalog.URLRewrite{EntityType: catalog.EntityTypeCategory, EntityID: 12, RequestPath: "women.html", StoreID: 2},
		catalog.URLRewrite{EntityType: "product", EntityID: 10, RequestPath: "shirt.html", StoreID: 2},
	)
	purger := NewStaleURLPurger(rewrites, newMemURLPathRepo(), zap.NewNop())

	err := purger.PurgeURLRewrites(context.Background(), []int64{10, 11}, 2)
	require.NoError(t, err)

	paths := []string{}
	for _, row := range rewrites.forStore(2) {
		paths = append(paths, row.RequestPath)
	}
	assert.ElementsMatch(t, []string{"old-men.html", "women.html", "shirt.html"}, paths)
	assert.Len(t, rewrites.forStore(1), 1)
}

func TestStaleURLPurger_PurgeURLRewrites_Error(t *testing.T) {
	rewrites := newMemRewriteRepo()
	rewrites.deleteErr = errors.New("lock timeout")
	purger := NewStaleURLPurger(rewrites, newMemURLPathRepo(), zap.NewNop())

	err := purger.PurgeURLRewrites(context.Background(), []int64{10}, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, rewrites.deleteErr)
	assert.Contains(t, err.Error(), "store 2")
}

func TestStaleURLPurger_PurgeURLPathAttribute(t *testing.T) {
	paths := newMemURLPathRepo()
	require.NoError(t, paths.Save(context.Background(), []catalog.URLPathAttribute{
		{CategoryID: 10, StoreID: catalog.GlobalScope, Value: "men"},
		{CategoryID: 10, StoreID: 2, Value: "herren"},
		{CategoryID: 12, StoreID: catalog.GlobalScope, Value: "women"},
	}))
	purger := NewStaleURLPurger(newMemRewriteRepo(), paths, zap.NewNop())

	require.NoError(t, purger.PurgeURLPathAttribute(context.Background(), []int64{10}))

	_, ok := paths.value(10, catalog.GlobalScope)
	assert.False(t, ok)
	_, ok = paths.value(10, 2)
	assert.False(t, ok)
	v, ok := paths.value(12, catalog.GlobalScope)
	assert.True(t, ok)
	assert.Equal(t, "women", v)
}

func TestStaleURLPurger_EmptyInputIsNoop(t *testing.T) {
	log := &callLog{}
	rewrites := newMemRewriteRepo()
	rewrites.log = log
	paths := newMemURLPathRepo()
	paths.log = log
	purger := NewStaleURLPurger(rewrites, paths, zap.NewNop())

	require.NoError(t, purger.PurgeURLPathAttribute(context.Background(), nil))
	require.NoError(t, purger.PurgeURLRewrites(context.Background(), []int64{}, 2))
	assert.Empty(t, log.all())
}
