package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/urlsync/internal/domain/catalog"
	"github.com/erp/urlsync/internal/domain/shared"
	"github.com/erp/urlsync/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RegenerationRecorder receives per-unit and per-batch outcomes for metrics
type RegenerationRecorder interface {
	RecordRegeneration(ctx context.Context, storeID int64, succeeded bool, rewrites int)
	RecordBatch(ctx context.Context, duration time.Duration, completed bool)
}

// RegenerationLockKey names the lock held for the whole of one batch
const RegenerationLockKey = "url_regeneration"

// DefaultRegenerationLockTTL is the lock expiry used when none is configured
const DefaultRegenerationLockTTL = 10 * time.Minute

// OrchestratorConfig tunes a regeneration batch
type OrchestratorConfig struct {
	// Workers bounds the number of stores processed at once
	Workers int
	// BatchTimeout bounds one Completed call; zero disables it
	BatchTimeout time.Duration
	// LockTTL is how long a crashed holder blocks other batches
	LockTTL time.Duration
}

// DefaultOrchestratorConfig processes stores one after another without a timeout
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{Workers: 1}
}

// RegenerationOrchestrator runs the URL regeneration pipeline for a batch of
// changed categories: one global url path purge, then per store the purge and
// regeneration of every affected subtree
type RegenerationOrchestrator struct {
	collector   *SubtreeCollector
	purger      *StaleURLPurger
	regenerator *URLRegenerator
	storeRepo   catalog.StoreRepository
	recorder    RegenerationRecorder
	locker      shared.Locker
	config      OrchestratorConfig
	logger      *zap.Logger
}

// NewRegenerationOrchestrator creates a new RegenerationOrchestrator
func NewRegenerationOrchestrator(
	collector *SubtreeCollector,
	purger *StaleURLPurger,
	regenerator *URLRegenerator,
	storeRepo catalog.StoreRepository,
	config OrchestratorConfig,
	logger *zap.Logger,
) *RegenerationOrchestrator {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.LockTTL <= 0 {
		config.LockTTL = DefaultRegenerationLockTTL
	}
	return &RegenerationOrchestrator{
		collector:   collector,
		purger:      purger,
		regenerator: regenerator,
		storeRepo:   storeRepo,
		config:      config,
		logger:      logger.Named("url_regeneration"),
	}
}

// WithRecorder sets the metrics recorder
func (o *RegenerationOrchestrator) WithRecorder(recorder RegenerationRecorder) *RegenerationOrchestrator {
	o.recorder = recorder
	return o
}

// WithLocker makes batches exclusive. Overlapping Completed calls then run one
// after another, each reading the tree only after the previous one has written.
func (o *RegenerationOrchestrator) WithLocker(locker shared.Locker) *RegenerationOrchestrator {
	o.locker = locker
	return o
}

// Completed regenerates the URLs of the changed categories and their subtrees.
// Purge and load errors abort the batch and are returned; stores finished
// before the error stay committed. Failures of single regenerations are
// recorded in the report and do not stop the batch.
func (o *RegenerationOrchestrator) Completed(ctx context.Context, ids []int64) (*RegenerationReport, error) {
	if o.config.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.BatchTimeout)
		defer cancel()
	}

	ctx, span := telemetry.StartSpan(ctx, "url_regeneration.completed",
		attribute.Int64Slice(telemetry.SpanAttrCategoryIDs, ids))
	defer span.End()

	report := newRegenerationReport(ids)
	o.logger.Info("Starting categories URL regeneration", zap.Int64s("category_ids", ids))

	err := o.run(ctx, ids, report)
	report.FinishedAt = time.Now()
	if o.recorder != nil {
		o.recorder.RecordBatch(ctx, report.Duration(), err == nil)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		o.logger.Error("Categories URL regeneration aborted",
			zap.Int64s("category_ids", ids),
			zap.Int("processed", len(report.Results)),
			zap.Error(err),
		)
		return report, err
	}

	report.Completed = true
	o.logger.Info("Categories URL regeneration done",
		zap.Int("succeeded", report.SucceededCount()),
		zap.Int("failed", len(report.Failures())),
		zap.Duration("duration", report.Duration()),
	)
	return report, nil
}

func (o *RegenerationOrchestrator) run(ctx context.Context, ids []int64, report *RegenerationReport) error {
	if o.locker != nil {
		lock, err := o.locker.Acquire(ctx, RegenerationLockKey, o.config.LockTTL)
		if err != nil {
			return fmt.Errorf("acquire regeneration lock: %w", err)
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				o.logger.Warn("Failed to release regeneration lock", zap.Error(err))
			}
		}()
	}

	purged, err := o.collector.ExpandAll(ctx, ids, nil)
	if err != nil {
		return fmt.Errorf("collect categories: %w", err)
	}
	if len(purged) > 0 {
		if err := o.purger.PurgeURLPathAttribute(ctx, purged); err != nil {
			return err
		}
	}
	report.Purged = purged

	stores, err := o.storeRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load stores: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.Workers)
	for i := range stores {
		store := stores[i]
		g.Go(func() error {
			return o.regenerateStore(gctx, ids, &store, report)
		})
	}
	return g.Wait()
}

func (o *RegenerationOrchestrator) regenerateStore(ctx context.Context, ids []int64, store *catalog.Store, report *RegenerationReport) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "url_regeneration.store",
		attribute.Int64(telemetry.SpanAttrStoreID, store.ID))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	candidates, err := o.collector.Candidates(ctx, ids, store)
	if err != nil {
		return fmt.Errorf("collect categories for store %d: %w", store.ID, err)
	}
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		category := &candidates[i]
		subtree, err := o.collector.Expand(ctx, category)
		if err != nil {
			return fmt.Errorf("expand category %d: %w", category.ID, err)
		}
		if err := o.purger.PurgeURLRewrites(ctx, subtree, store.ID); err != nil {
			return err
		}
		result := o.regenerator.Regenerate(ctx, category, store)
		report.add(result)
		if o.recorder != nil {
			o.recorder.RecordRegeneration(ctx, store.ID, result.Succeeded(), result.Rewrites)
		}
	}
	return nil
}
