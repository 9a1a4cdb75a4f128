package catalog

import (
	"context"

	"github.com/erp/urlsync/internal/domain/catalog"
	"github.com/erp/urlsync/internal/domain/shared"
	"github.com/erp/urlsync/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MoveRecorder counts move attempts by outcome
type MoveRecorder interface {
	RecordMove(ctx context.Context, moved bool)
}

// CategoryMover relocates categories inside the tree
type CategoryMover struct {
	categoryRepo catalog.CategoryRepository
	publisher    shared.EventPublisher
	recorder     MoveRecorder
	logger       *zap.Logger
}

// NewCategoryMover creates a new CategoryMover
func NewCategoryMover(categoryRepo catalog.CategoryRepository, logger *zap.Logger) *CategoryMover {
	return &CategoryMover{
		categoryRepo: categoryRepo,
		logger:       logger.Named("category_mover"),
	}
}

// WithEventPublisher sets the publisher notified after a committed move
func (m *CategoryMover) WithEventPublisher(publisher shared.EventPublisher) *CategoryMover {
	m.publisher = publisher
	return m
}

// WithRecorder sets the metrics recorder
func (m *CategoryMover) WithRecorder(recorder MoveRecorder) *CategoryMover {
	m.recorder = recorder
	return m
}

// Move places the category under parentID directly after the sibling afterID.
// A nil afterID, or one that is not a current child of the new parent, appends
// the category after the last child. catalog.InsertFirst places it first.
func (m *CategoryMover) Move(ctx context.Context, categoryID, parentID int64, afterID *int64) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "category.move",
		attribute.Int64(telemetry.SpanAttrCategoryID, categoryID),
		attribute.Int64(telemetry.SpanAttrParentID, parentID),
	)
	defer span.End()

	moved, err := m.move(ctx, categoryID, parentID, afterID)
	telemetry.RecordError(span, err)
	if m.recorder != nil {
		m.recorder.RecordMove(ctx, moved)
	}
	return moved, err
}

func (m *CategoryMover) move(ctx context.Context, categoryID, parentID int64, afterID *int64) (bool, error) {
	category, err := m.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return false, err
	}
	parent, err := m.categoryRepo.FindByID(ctx, parentID)
	if err != nil {
		return false, err
	}

	// Reject before loading the rest of the tree
	if parent.ID == category.ID || category.IsAncestorOf(parent) {
		return false, catalog.ErrCyclicMove
	}

	tree, err := m.loadTree(ctx, category, parent)
	if err != nil {
		return false, err
	}

	oldParentID := category.ParentID
	oldPath := category.Path

	node, _ := tree.Get(category.ID)
	changed, err := tree.Move(category.ID, parent.ID, afterID)
	if err != nil {
		return false, err
	}

	if err := m.categoryRepo.SaveAll(ctx, changed); err != nil {
		m.logger.Error("Could not move category",
			zap.Int64("category_id", categoryID),
			zap.Int64("parent_id", parentID),
			zap.Error(err),
		)
		return false, &catalog.MoveError{CategoryID: categoryID, Err: err}
	}

	m.logger.Info("Category moved",
		zap.Int64("category_id", categoryID),
		zap.String("old_path", oldPath),
		zap.String("new_path", node.Path),
		zap.Int("changed", len(changed)),
		zap.Int("loaded", tree.Len()),
	)

	if m.publisher != nil {
		event := catalog.NewCategoryMovedEvent(node, oldParentID, oldPath)
		if err := m.publisher.Publish(ctx, event); err != nil {
			// The move stays committed even when the event is lost
			m.logger.Warn("Failed to publish category moved event",
				zap.Int64("category_id", categoryID),
				zap.Error(err),
			)
		}
	}

	return true, nil
}

// loadTree loads the part of the tree a move touches: both parents with their
// children and the moving category with its whole subtree
func (m *CategoryMover) loadTree(ctx context.Context, category, parent *catalog.Category) (*catalog.Tree, error) {
	loaded := make(map[int64]*catalog.Category)
	order := []*catalog.Category{}
	add := func(cs ...catalog.Category) {
		for i := range cs {
			if _, ok := loaded[cs[i].ID]; ok {
				continue
			}
			c := cs[i]
			loaded[c.ID] = &c
			order = append(order, &c)
		}
	}

	add(*category, *parent)

	if category.ParentID != nil {
		oldParent, err := m.categoryRepo.FindByID(ctx, *category.ParentID)
		if err != nil {
			return nil, err
		}
		add(*oldParent)
		siblings, err := m.categoryRepo.FindChildren(ctx, oldParent.ID)
		if err != nil {
			return nil, err
		}
		add(siblings...)
	}

	children, err := m.categoryRepo.FindChildren(ctx, parent.ID)
	if err != nil {
		return nil, err
	}
	add(children...)

	descendants, err := m.categoryRepo.FindDescendants(ctx, category.Path, catalog.GlobalScope)
	if err != nil {
		return nil, err
	}
	add(descendants...)

	return catalog.NewTree(order...), nil
}
