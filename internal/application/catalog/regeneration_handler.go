package catalog

import (
	"context"
	"fmt"

	"github.com/erp/urlsync/internal/domain/catalog"
	"github.com/erp/urlsync/internal/domain/shared"
	"go.uber.org/zap"
)

// BatchRegenerator runs URL regeneration for a batch of changed categories
type BatchRegenerator interface {
	Completed(ctx context.Context, ids []int64) (*RegenerationReport, error)
}

// RegenerationHandler regenerates category URLs when categories were moved or imported
type RegenerationHandler struct {
	regenerator BatchRegenerator
	logger      *zap.Logger
}

// NewRegenerationHandler creates a new handler for category change events
func NewRegenerationHandler(regenerator BatchRegenerator, logger *zap.Logger) *RegenerationHandler {
	return &RegenerationHandler{
		regenerator: regenerator,
		logger:      logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *RegenerationHandler) EventTypes() []string {
	return []string{catalog.EventTypeCategoryMoved, catalog.EventTypeCategoriesImported}
}

// Handle runs a regeneration batch for the categories named by the event
func (h *RegenerationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	trigger, ok := event.(catalog.RegenerationTrigger)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.Strings("expected", h.EventTypes()),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	ids := trigger.AffectedCategoryIDs()
	if len(ids) == 0 {
		return nil
	}

	report, err := h.regenerator.Completed(ctx, ids)
	if err != nil {
		return fmt.Errorf("regenerate urls for %s event %s: %w", event.EventType(), event.EventID(), err)
	}

	h.logger.Info("Regenerated category urls",
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.Int64s("category_ids", ids),
		zap.Int("succeeded", report.SucceededCount()),
		zap.Int("failed", len(report.Failures())),
	)
	return nil
}

// Ensure RegenerationHandler implements EventHandler
var _ shared.EventHandler = (*RegenerationHandler)(nil)
