package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yz181x/dify/internal/adapters/observer"
	"github.com/yz181x/dify/internal/config"
	"github.com/yz181x/dify/internal/core/ports"
	"github.com/yz181x/dify/internal/core/usecase"
	"github.com/yz181x/dify/internal/infrastructure/model"
	"github.com/yz181x/dify/internal/infrastructure/queue/nats"
	"github.com/yz181x/dify/internal/infrastructure/repository/postgres"
	"github.com/yz181x/dify/internal/infrastructure/resilience"
	"github.com/yz181x/dify/internal/infrastructure/vector/qdrant"
	"github.com/yz181x/dify/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.RetrievalMetrics

	Queue      *nats.Queue
	RetrieveUC ports.ContextRetriever
	HitsUC     ports.SegmentHitRecorder

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	collections := postgres.NewCollectionRepository(db)
	segments := postgres.NewSegmentRepository(db)
	documents := postgres.NewDocumentRepository(db)
	keyword := postgres.NewKeywordIndex(db)

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		RetryInitialBackoff: cfg.RetryInitialBackoff,
		BreakerEnabled:      cfg.BreakerEnabled,
	})

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	vector := qdrant.New(cfg.QdrantURL, qdrant.Options{
		ResilienceExecutor: executor,
	})
	models := model.NewGateway(model.GatewayConfig{
		OllamaURL:   cfg.OllamaURL,
		OllamaModel: cfg.OllamaEmbedModel,
		RerankURL:   cfg.RerankURL,
		Executor:    executor,
	})

	m := metrics.NewRetrievalMetrics("retrieval-engine")
	retrieveUC := usecase.NewRetrieveUseCase(
		collections,
		segments,
		documents,
		keyword,
		vector,
		models,
		logger,
		observer.NewMetricsObserver(m),
		observer.NewHitObserver(queue, m, logger),
	)
	hitsUC := usecase.NewRecordHitsUseCase(segments, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,

		Queue:      queue,
		RetrieveUC: retrieveUC,
		HitsUC:     hitsUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
