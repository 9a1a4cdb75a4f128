package catalog

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/erp/urlsync/internal/domain/catalog"
	"github.com/erp/urlsync/internal/domain/shared"
)

// callLog records repository calls in order so tests can assert sequencing
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) record(format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.calls)
}

func (l *callLog) index(call string) int {
	return slices.Index(l.all(), call)
}

func ptr[T any](v T) *T {
	return &v
}

// memCategoryRepo is an in-memory CategoryRepository
type memCategoryRepo struct {
	mu         sync.Mutex
	categories map[int64]catalog.Category
	values     map[[2]int64]catalog.CategoryStoreValue
	saveErr    error
	saved      [][]catalog.Category
	log        *callLog
}

func newMemCategoryRepo(categories ...catalog.Category) *memCategoryRepo {
	r := &memCategoryRepo{
		categories: make(map[int64]catalog.Category),
		values:     make(map[[2]int64]catalog.CategoryStoreValue),
	}
	for _, c := range categories {
		r.categories[c.ID] = c
	}
	return r
}

func (r *memCategoryRepo) setStoreValue(v catalog.CategoryStoreValue) {
	r.values[[2]int64{v.CategoryID, v.StoreID}] = v
}

func (r *memCategoryRepo) get(id int64) catalog.Category {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.categories[id]
}

func (r *memCategoryRepo) scoped(c catalog.Category, storeID int64) catalog.Category {
	if v, ok := r.values[[2]int64{c.ID, storeID}]; ok && storeID != catalog.GlobalScope {
		c.ApplyStoreValue(v)
	}
	return c
}

func (r *memCategoryRepo) sorted(out []catalog.Category) []catalog.Category {
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (r *memCategoryRepo) FindByID(ctx context.Context, id int64) (*catalog.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (r *memCategoryRepo) FindByIDs(ctx context.Context, ids []int64, storeID int64) ([]catalog.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []catalog.Category{}
	for _, id := range ids {
		if c, ok := r.categories[id]; ok {
			out = append(out, r.scoped(c, storeID))
		}
	}
	return r.sorted(out), nil
}

func (r *memCategoryRepo) FindByFilter(ctx context.Context, filter catalog.CategoryFilter) ([]catalog.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.record("candidates store=%d", filter.StoreID)
	out := []catalog.Category{}
	for _, c := range r.categories {
		if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, c.ID) {
			continue
		}
		if filter.LevelGreaterThan != nil && c.Level <= *filter.LevelGreaterThan {
			continue
		}
		if filter.PathPrefix != "" && !strings.HasPrefix(c.Path, filter.PathPrefix) {
			continue
		}
		out = append(out, r.scoped(c, filter.StoreID))
	}
	return r.sorted(out), nil
}

func (r *memCategoryRepo) FindChildren(ctx context.Context, parentID int64) ([]catalog.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []catalog.Category{}
	for _, c := range r.categories {
		if c.ParentID != nil && *c.ParentID == parentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *memCategoryRepo) FindDescendants(ctx context.Context, path string, storeID int64) ([]catalog.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []catalog.Category{}
	for _, c := range r.categories {
		if strings.HasPrefix(c.Path, path+"/") {
			out = append(out, r.scoped(c, storeID))
		}
	}
	return r.sorted(out), nil
}

func (r *memCategoryRepo) DescendantIDs(ctx context.Context, category *catalog.Category, includeSelf bool) ([]int64, error) {
	descendants, _ := r.FindDescendants(ctx, category.Path, catalog.GlobalScope)
	ids := []int64{}
	if includeSelf {
		ids = append(ids, category.ID)
	}
	for _, c := range descendants {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (r *memCategoryRepo) SaveAll(ctx context.Context, categories []*catalog.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	batch := make([]catalog.Category, 0, len(categories))
	for _, c := range categories {
		r.categories[c.ID] = *c
		batch = append(batch, *c)
	}
	r.saved = append(r.saved, batch)
	return nil
}

type memStoreRepo struct {
	stores []catalog.Store
	err    error
}

func (r *memStoreRepo) FindAll(ctx context.Context) ([]catalog.Store, error) {
	if r.err != nil {
		return nil, r.err
	}
	return slices.Clone(r.stores), nil
}

// memRewriteRepo is an in-memory URLRewriteRepository keyed by (request path, store)
type memRewriteRepo struct {
	mu        sync.Mutex
	rows      []catalog.URLRewrite
	nextID    int64
	deleteErr error
	// failFor makes Replace fail when any rewrite targets the entity
	failFor map[int64]error
	log     *callLog
}

func newMemRewriteRepo(rows ...catalog.URLRewrite) *memRewriteRepo {
	r := &memRewriteRepo{failFor: make(map[int64]error)}
	for _, row := range rows {
		r.nextID++
		row.ID = r.nextID
		r.rows = append(r.rows, row)
	}
	return r
}

func (r *memRewriteRepo) DeleteMatching(ctx context.Context, match catalog.URLRewriteMatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.record("purge store=%d ids=%v", match.StoreID, match.EntityIDs)
	if r.deleteErr != nil {
		return r.deleteErr
	}
	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.EntityType == match.EntityType &&
			row.StoreID == match.StoreID &&
			row.RedirectType == match.RedirectType &&
			slices.Contains(match.EntityIDs, row.EntityID) {
			continue
		}
		kept = append(kept, row)
	}
	r.rows = kept
	return nil
}

func (r *memRewriteRepo) Replace(ctx context.Context, rewrites []catalog.URLRewrite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rw := range rewrites {
		if err, ok := r.failFor[rw.EntityID]; ok {
			r.log.record("replace-failed store=%d entity=%d", rw.StoreID, rw.EntityID)
			return err
		}
	}
	for _, rw := range rewrites {
		r.log.record("replace store=%d entity=%d", rw.StoreID, rw.EntityID)
		idx := slices.IndexFunc(r.rows, func(row catalog.URLRewrite) bool {
			return row.RequestPath == rw.RequestPath && row.StoreID == rw.StoreID
		})
		if idx >= 0 {
			rw.ID = r.rows[idx].ID
			r.rows[idx] = rw
			continue
		}
		r.nextID++
		rw.ID = r.nextID
		r.rows = append(r.rows, rw)
	}
	return nil
}

func (r *memRewriteRepo) FindByEntity(ctx context.Context, entityType string, entityID, storeID int64) ([]catalog.URLRewrite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []catalog.URLRewrite{}
	for _, row := range r.rows {
		if row.EntityType == entityType && row.EntityID == entityID && row.StoreID == storeID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memRewriteRepo) forStore(storeID int64) []catalog.URLRewrite {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []catalog.URLRewrite{}
	for _, row := range r.rows {
		if row.StoreID == storeID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// memURLPathRepo is an in-memory URLPathRepository
type memURLPathRepo struct {
	mu        sync.Mutex
	rows      map[[2]int64]string
	deleteErr error
	// beforeDelete runs ahead of every delete, outside the repository mutex
	beforeDelete func(ids []int64)
	log          *callLog
}

func newMemURLPathRepo() *memURLPathRepo {
	return &memURLPathRepo{rows: make(map[[2]int64]string)}
}

func (r *memURLPathRepo) DeleteForEntities(ctx context.Context, ids []int64) error {
	if r.beforeDelete != nil {
		r.beforeDelete(ids)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.record("purge-url-path ids=%v", ids)
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for key := range r.rows {
		if slices.Contains(ids, key[0]) {
			delete(r.rows, key)
		}
	}
	return nil
}

func (r *memURLPathRepo) Save(ctx context.Context, attrs []catalog.URLPathAttribute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range attrs {
		r.rows[[2]int64{a.CategoryID, a.StoreID}] = a.Value
	}
	return nil
}

func (r *memURLPathRepo) value(categoryID, storeID int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.rows[[2]int64{categoryID, storeID}]
	return v, ok
}

// memLocker is a process-local shared.Locker
type memLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newMemLocker() *memLocker {
	return &memLocker{slots: make(map[string]chan struct{})}
}

func (l *memLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		return memLock(slot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type memLock chan struct{}

func (l memLock) Release(ctx context.Context) error {
	<-l
	return nil
}

// category builds a category whose level is derived from its path
func category(id int64, parentID int64, path string, position int, urlKey string) catalog.Category {
	c := catalog.Category{
		ID:       id,
		Path:     path,
		Level:    strings.Count(path, "/"),
		Position: position,
		Name:     fmt.Sprintf("Category %d", id),
		URLKey:   urlKey,
	}
	if parentID != 0 {
		c.ParentID = ptr(parentID)
	}
	return c
}
