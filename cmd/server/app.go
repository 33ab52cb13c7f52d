package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/aicache"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/config"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/events"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/extraction"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/guard"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/pipeline"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/embeddings"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/gemini"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/objectstore"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/platform/postgres"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/ratelimit"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/service"
	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/task"
)

// application holds the fully wired dependencies of the server. It is
// constructed once at startup and shared by the router and the server
// lifecycle code.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	documentService *service.DocumentService
	analysisService *service.AnalysisService
	dispatcher      *task.Dispatcher
}

// newApplication wires every component of the server: stores, the AI call
// substrate (cache, rate limiter, idempotency guard), the pipeline stages,
// the dispatcher, and the services the handlers depend on.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	// Stores share the single pooled connection; transactional call sites
	// rebind them with WithTx.
	documentStore := postgres.NewPostgresDocumentStore(db, logger)
	jobStore := postgres.NewPostgresJobStore(db, logger)
	analyticsStore := postgres.NewPostgresAnalyticsStore(db, logger)
	progressStore := postgres.NewPostgresProgressStore(db)
	misconceptionStore := postgres.NewPostgresMisconceptionStore(db, logger)
	notificationStore := postgres.NewPostgresNotificationStore(db, logger)
	lockStore := postgres.NewPostgresLockStore(db, logger)

	analysisGuard, err := guard.New(
		lockStore,
		time.Duration(cfg.Worker.LockLeaseSeconds)*time.Second,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create idempotency guard: %w", err)
	}

	limiter := ratelimit.New(ratelimit.Config{
		MinInterval: time.Duration(cfg.LLM.RateLimitIntervalMs) * time.Millisecond,
		Burst:       cfg.LLM.RateLimitBurst,
	})

	cache := aicache.New(aicache.Config{
		TTL:        time.Duration(cfg.LLM.CacheTTLSeconds) * time.Second,
		MaxEntries: cfg.LLM.CacheMaxEntries,
	})

	generator, err := gemini.NewGeminiGenerator(ctx, logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	storage, err := objectstore.NewMinioStore(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create object store: %w", err)
	}

	extractor := extraction.NewHTTPExtractor(cfg.Extraction, logger)

	// An unset embeddings URL leaves the trigger nil; the stage then
	// completes without delivering anything.
	var trigger pipeline.EmbeddingTrigger
	if t := embeddings.NewHTTPTrigger(cfg.Embeddings, logger); t != nil {
		trigger = t
	}

	extractStage := pipeline.NewExtractSectionsStage(
		db,
		documentStore,
		jobStore,
		storage,
		extractor,
		generator,
		cfg.Storage.Bucket,
		cfg.LLM.MaxPromptChars,
		logger,
	)
	mappingStage := pipeline.NewMapActivitiesStage(documentStore, logger)
	analyticsStage := pipeline.NewCalculateAnalyticsStage(
		documentStore,
		analyticsStore,
		progressStore,
		generator,
		logger,
	)

	registry := task.NewStageRegistry()
	registry.Register(extractStage)
	registry.Register(mappingStage)
	registry.Register(analyticsStage)
	registry.Register(pipeline.NewFullPipelineStage(extractStage, mappingStage, analyticsStage, logger))
	registry.Register(pipeline.NewGenerateEmbeddingsStage(documentStore, trigger, logger))

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(service.NewNotificationService(documentStore, notificationStore, logger))

	dispatcher := task.NewDispatcher(
		jobStore,
		documentStore,
		registry,
		emitter,
		task.DispatcherConfig{
			MaxJobs:     cfg.Worker.MaxJobs,
			StuckJobAge: time.Duration(cfg.Worker.StuckJobAgeMinutes) * time.Minute,
		},
		logger,
	)

	return &application{
		config:          cfg,
		logger:          logger,
		db:              db,
		documentService: service.NewDocumentService(db, documentStore, jobStore, logger),
		analysisService: service.NewAnalysisService(
			analysisGuard,
			limiter,
			cache,
			generator,
			misconceptionStore,
			logger,
		),
		dispatcher: dispatcher,
	}, nil
}
