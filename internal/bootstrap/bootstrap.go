package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	httpadapter "github.com/whisperengine-ai/whisperengine/internal/adapters/http"
	"github.com/whisperengine-ai/whisperengine/internal/config"
	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
	"github.com/whisperengine-ai/whisperengine/internal/core/ports"
	"github.com/whisperengine-ai/whisperengine/internal/core/usecase"
	"github.com/whisperengine-ai/whisperengine/internal/enrichment"
	"github.com/whisperengine-ai/whisperengine/internal/infrastructure/annotate"
	"github.com/whisperengine-ai/whisperengine/internal/infrastructure/graph/neo4j"
	"github.com/whisperengine-ai/whisperengine/internal/infrastructure/llm/ollama"
	"github.com/whisperengine-ai/whisperengine/internal/infrastructure/queue/nats"
	"github.com/whisperengine-ai/whisperengine/internal/infrastructure/repository/postgres"
	"github.com/whisperengine-ai/whisperengine/internal/infrastructure/resilience"
	"github.com/whisperengine-ai/whisperengine/internal/infrastructure/vector/qdrant"
	"github.com/whisperengine-ai/whisperengine/internal/observability/metrics"
)

// APIApp holds everything the classification API binary needs.
type APIApp struct {
	Config  config.Config
	Router  *httpadapter.Router
	Metrics *metrics.HTTPMetrics

	closeFn func()
}

// WorkerApp holds everything the enrichment worker binary needs.
type WorkerApp struct {
	Config   config.Config
	Queue    ports.MessageQueue
	Enricher ports.ConversationEnricher
	Metrics  *metrics.WorkerMetrics

	closeFn func()
}

func collections(cfg config.Config) map[domain.VectorSpace]string {
	return map[domain.VectorSpace]string{
		domain.SpaceContent:  cfg.QdrantContentCollection,
		domain.SpaceEmotion:  cfg.QdrantEmotionCollection,
		domain.SpaceSemantic: cfg.QdrantSemanticCollection,
	}
}

func NewAPI(ctx context.Context, cfg config.Config) (*APIApp, error) {
	annotator := annotate.Shared(annotate.Options{
		WordVectorPath: cfg.WordVectorPath,
	})

	lexicon, err := usecase.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}

	tuning := usecase.DefaultTuning()
	tuning.SemanticThreshold = cfg.SemanticThreshold
	tuning.EmotionIntensityThreshold = cfg.EmotionIntensityThreshold

	classifier := usecase.NewClassifyUseCase(annotator, lexicon, tuning)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	facts := postgres.NewFactRepository(db)
	if err := facts.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	history := postgres.NewHistoryRepository(db)

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel).
		WithExecutor(executor)
	embedder := ollama.NewEmbedder(ollamaClient)

	vectors := qdrant.New(cfg.QdrantURL, collections(cfg))

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	retriever := usecase.NewRetrieveUseCase(
		classifier, embedder, vectors, facts, history,
		cfg.RetrievalTopK, cfg.FusionRRFK,
	)

	httpMetrics := metrics.NewHTTPMetrics("api")
	httpMetrics.SetDegradedMode(!annotator.HasParser())

	router := httpadapter.NewRouter(classifier, retriever, queue, httpMetrics, httpadapter.RouterOptions{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		MaxInFlight:    cfg.MaxInFlight,
		QueueWait:      time.Duration(cfg.QueueWaitMs) * time.Millisecond,
	})

	return &APIApp{
		Config:  cfg,
		Router:  router,
		Metrics: httpMetrics,
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *APIApp) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func NewWorker(ctx context.Context, cfg config.Config) (*WorkerApp, error) {
	// The worker builds its own annotator so API latency is never
	// affected by enrichment load.
	annotator := annotate.New(annotate.Options{
		WordVectorPath: cfg.WordVectorPath,
	})

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	facts := postgres.NewFactRepository(db)
	if err := facts.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	history := postgres.NewHistoryRepository(db)

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel).
		WithExecutor(executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	extractor := ollama.NewFactExtractor(ollamaClient)

	vectors := qdrant.New(cfg.QdrantURL, collections(cfg))

	var graph ports.RelationshipGraph
	graphStore, err := neo4j.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		slog.Warn("neo4j unavailable, relationship mirroring disabled", "error", err)
	} else {
		graph = graphStore
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	enricher := enrichment.NewEnrichUseCase(
		enrichment.NewPreprocessor(annotator),
		extractor,
		facts,
		graph,
		history,
		embedder,
		vectors,
	)

	return &WorkerApp{
		Config:   cfg,
		Queue:    queue,
		Enricher: enricher,
		Metrics:  metrics.NewWorkerMetrics("worker"),
		closeFn: func() {
			queue.Close()
			if graphStore != nil {
				_ = graphStore.Close(context.Background())
			}
			_ = db.Close()
		},
	}, nil
}

func (a *WorkerApp) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
