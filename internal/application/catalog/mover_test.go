package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/urlsync/internal/domain/catalog"
	"github.com/erp/urlsync/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

// moverFixture is 1 -> 2 -> {10 -> 11 -> 13, 12}
func moverFixture() *memCategoryRepo {
	root := category(1, 0, "1", 1, "")
	root.ChildrenCount = 1
	store := category(2, 1, "1/2", 1, "")
	store.ChildrenCount = 2
	c10 := category(10, 2, "1/2/10", 1, "men")
	c10.ChildrenCount = 1
	c11 := category(11, 10, "1/2/10/11", 1, "tops")
	c11.ChildrenCount = 1
	return newMemCategoryRepo(
		root,
		store,
		c10,
		c11,
		category(12, 2, "1/2/12", 2, "women"),
		category(13, 11, "1/2/10/11/13", 1, "jackets"),
	)
}

func TestCategoryMover_Move_UnderSibling(t *testing.T) {
	repo := moverFixture()
	publisher := &recordingPublisher{}
	mover := NewCategoryMover(repo, zaptest.NewLogger(t)).WithEventPublisher(publisher)

	moved, err := mover.Move(context.Background(), 11, 12, nil)
	require.NoError(t, err)
	assert.True(t, moved)

	c11 := repo.get(11)
	require.NotNil(t, c11.ParentID)
	assert.Equal(t, int64(12), *c11.ParentID)
	assert.Equal(t, "1/2/12/11", c11.Path)
	assert.Equal(t, 3, c11.Level)
	assert.Equal(t, 1, c11.Position)

	c13 := repo.get(13)
	assert.Equal(t, "1/2/12/11/13", c13.Path)
	assert.Equal(t, 4, c13.Level)

	assert.Equal(t, 0, repo.get(10).ChildrenCount)
	assert.Equal(t, 1, repo.get(12).ChildrenCount)

	require.Len(t, repo.saved, 1)
	ids := []int64{}
	for _, c := range repo.saved[0] {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []int64{10, 12, 11, 13}, ids)

	require.Len(t, publisher.events, 1)
	event, ok := publisher.events[0].(*catalog.CategoryMovedEvent)
	require.True(t, ok)
	assert.Equal(t, int64(11), event.CategoryID)
	assert.Equal(t, "1/2/10/11", event.OldPath)
	assert.Equal(t, "1/2/12/11", event.NewPath)
	require.NotNil(t, event.OldParentID)
	assert.Equal(t, int64(10), *event.OldParentID)
	assert.Equal(t, int64(12), event.NewParentID)
}

func TestCategoryMover_Move_LogsLoadedSubtree(t *testing.T) {
	repo := moverFixture()
	core, logs := observer.New(zapcore.InfoLevel)
	mover := NewCategoryMover(repo, zap.New(core))

	_, err := mover.Move(context.Background(), 11, 12, nil)
	require.NoError(t, err)

	entries := logs.FilterMessage("Category moved").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	// 11 and 13 move, 10 loses a child, 12 gains one
	assert.Equal(t, int64(4), fields["loaded"])
	assert.Equal(t, int64(4), fields["changed"])
}

func TestCategoryMover_Move_SiblingOrder(t *testing.T) {
	t.Run("insert first", func(t *testing.T) {
		repo := moverFixture()
		mover := NewCategoryMover(repo, zap.NewNop())

		moved, err := mover.Move(context.Background(), 12, 2, ptr(catalog.InsertFirst))
		require.NoError(t, err)
		assert.True(t, moved)
		assert.Equal(t, 1, repo.get(12).Position)
		assert.Equal(t, 2, repo.get(10).Position)
		assert.Equal(t, "1/2/12", repo.get(12).Path)
	})

	t.Run("unknown after id appends after the last child", func(t *testing.T) {
		repo := moverFixture()
		mover := NewCategoryMover(repo, zap.NewNop())

		_, err := mover.Move(context.Background(), 13, 2, ptr(int64(999)))
		require.NoError(t, err)
		assert.Equal(t, 1, repo.get(10).Position)
		assert.Equal(t, 2, repo.get(12).Position)
		assert.Equal(t, 3, repo.get(13).Position)
		assert.Equal(t, "1/2/13", repo.get(13).Path)
		assert.Equal(t, 2, repo.get(13).Level)
		assert.Equal(t, 3, repo.get(2).ChildrenCount)
		assert.Equal(t, 0, repo.get(11).ChildrenCount)
	})

	t.Run("after a named sibling", func(t *testing.T) {
		repo := moverFixture()
		mover := NewCategoryMover(repo, zap.NewNop())

		_, err := mover.Move(context.Background(), 13, 2, ptr(int64(10)))
		require.NoError(t, err)
		assert.Equal(t, 1, repo.get(10).Position)
		assert.Equal(t, 2, repo.get(13).Position)
		assert.Equal(t, 3, repo.get(12).Position)
	})
}

func TestCategoryMover_Move_Cyclic(t *testing.T) {
	tests := []struct {
		name     string
		category int64
		parent   int64
	}{
		{"under own grandchild", 10, 13},
		{"under own child", 10, 11},
		{"under itself", 12, 12},
		{"root under store root", 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := moverFixture()
			before := repo.get(tt.category)
			publisher := &recordingPublisher{}
			mover := NewCategoryMover(repo, zap.NewNop()).WithEventPublisher(publisher)

			moved, err := mover.Move(context.Background(), tt.category, tt.parent, nil)
			assert.False(t, moved)
			assert.ErrorIs(t, err, catalog.ErrCyclicMove)
			assert.True(t, shared.IsDomainError(err, "CYCLIC_MOVE"))

			assert.Empty(t, repo.saved)
			assert.Equal(t, before, repo.get(tt.category))
			assert.Empty(t, publisher.events)
		})
	}
}

func TestCategoryMover_Move_NotFound(t *testing.T) {
	repo := moverFixture()
	mover := NewCategoryMover(repo, zap.NewNop())

	_, err := mover.Move(context.Background(), 404, 2, nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = mover.Move(context.Background(), 11, 404, nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, repo.saved)
}

func TestCategoryMover_Move_PersistenceFailure(t *testing.T) {
	repo := moverFixture()
	cause := errors.New("connection reset")
	repo.saveErr = cause
	core, logs := observer.New(zapcore.ErrorLevel)
	publisher := &recordingPublisher{}
	mover := NewCategoryMover(repo, zap.New(core)).WithEventPublisher(publisher)

	moved, err := mover.Move(context.Background(), 11, 12, nil)
	assert.False(t, moved)

	var moveErr *catalog.MoveError
	require.ErrorAs(t, err, &moveErr)
	assert.Equal(t, int64(11), moveErr.CategoryID)
	assert.ErrorIs(t, err, cause)

	entries := logs.FilterMessage("Could not move category").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(11), entries[0].ContextMap()["category_id"])

	assert.Equal(t, "1/2/10/11", repo.get(11).Path)
	assert.Empty(t, publisher.events)
}

func TestCategoryMover_Move_PublishFailureKeepsMove(t *testing.T) {
	repo := moverFixture()
	publisher := &recordingPublisher{err: errors.New("bus closed")}
	mover := NewCategoryMover(repo, zap.NewNop()).WithEventPublisher(publisher)

	moved, err := mover.Move(context.Background(), 11, 12, nil)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, "1/2/12/11", repo.get(11).Path)
}

type recordingMoveRecorder struct {
	outcomes []bool
}

func (r *recordingMoveRecorder) RecordMove(ctx context.Context, moved bool) {
	r.outcomes = append(r.outcomes, moved)
}

func TestCategoryMover_Move_RecordsOutcome(t *testing.T) {
	repo := moverFixture()
	recorder := &recordingMoveRecorder{}
	mover := NewCategoryMover(repo, zap.NewNop()).WithRecorder(recorder)

	_, err := mover.Move(context.Background(), 11, 12, nil)
	require.NoError(t, err)

	_, err = mover.Move(context.Background(), 12, 13, nil)
	require.ErrorIs(t, err, catalog.ErrCyclicMove)

	assert.Equal(t, []bool{true, false}, recorder.outcomes)
}
