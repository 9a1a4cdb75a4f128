package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	catalogapp "github.com/erp/urlsync/internal/application/catalog"
	"github.com/erp/urlsync/internal/domain/catalog"
	"github.com/erp/urlsync/internal/infrastructure/cache"
	"github.com/erp/urlsync/internal/infrastructure/config"
	"github.com/erp/urlsync/internal/infrastructure/logger"
	"github.com/erp/urlsync/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// Exit codes
const (
	exitOK       = 0
	exitAborted  = 1
	exitUsage    = 2
	exitFailures = 3
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so that deferred cleanup runs before exit
func run() int {
	var (
		idList  string
		workers int
		asJSON  bool
	)

	flag.StringVar(&idList, "ids", "", "Comma separated ids of the changed categories, e.g. 10,11")
	flag.IntVar(&workers, "workers", 0, "Stores processed at once (default: regeneration.workers)")
	flag.BoolVar(&asJSON, "json", false, "Print the report as JSON")
	flag.Parse()

	ids, err := catalog.ParseIDList(idList)
	if err != nil || len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: regenerate -ids 10,11 [-workers n] [-json]")
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return exitAborted
	}
	if workers > 0 {
		cfg.Regeneration.Workers = workers
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 0))
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return exitAborted
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("Failed to close database connection", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shares the server's lock when Redis is configured
	coord := cache.NewCoordination(ctx, cfg.Redis, log)
	defer func() {
		_ = coord.Close()
	}()

	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	rewriteRepo := persistence.NewGormURLRewriteRepository(db.DB)
	urlPathRepo := persistence.NewGormURLPathRepository(db.DB)

	orchestrator := catalogapp.NewRegenerationOrchestrator(
		catalogapp.NewSubtreeCollector(categoryRepo),
		catalogapp.NewStaleURLPurger(rewriteRepo, urlPathRepo, log),
		catalogapp.NewURLRegenerator(categoryRepo, rewriteRepo, urlPathRepo, log).
			WithSuffix(cfg.Regeneration.CategoryURLSuffix),
		persistence.NewGormStoreRepository(db.DB),
		catalogapp.OrchestratorConfig{
			Workers:      cfg.Regeneration.Workers,
			BatchTimeout: cfg.Regeneration.BatchTimeout,
			LockTTL:      cfg.Regeneration.LockTTL,
		},
		log,
	).WithLocker(coord.Locker)

	report, err := orchestrator.Completed(ctx, ids)
	return finish(os.Stdout, log, report, err, asJSON)
}

// finish prints the report and maps the outcome to an exit code
func finish(w io.Writer, log *zap.Logger, report *catalogapp.RegenerationReport, err error, asJSON bool) int {
	if asJSON && report != nil {
		out, jsonErr := json.MarshalIndent(catalogapp.ToRegenerationReportResponse(report), "", "  ")
		if jsonErr != nil {
			log.Error("Failed to encode report", zap.Error(jsonErr))
			return exitAborted
		}
		fmt.Fprintln(w, string(out))
	}
	if err != nil {
		log.Error("Regeneration aborted", zap.Error(err))
		return exitAborted
	}
	if report == nil {
		log.Error("Regeneration returned no report")
		return exitAborted
	}

	failures := report.Failures()
	for _, failure := range failures {
		log.Warn("Category not regenerated",
			zap.Int64("category_id", failure.CategoryID),
			zap.Int64("store_id", failure.StoreID),
			zap.Error(failure.Err),
		)
	}
	if len(failures) > 0 {
		return exitFailures
	}
	return exitOK
}
