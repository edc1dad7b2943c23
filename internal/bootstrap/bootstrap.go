package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/campus-faq-assistant/internal/config"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
	"github.com/kirillkom/campus-faq-assistant/internal/core/retrieval"
	"github.com/kirillkom/campus-faq-assistant/internal/core/usecase"
	lrucache "github.com/kirillkom/campus-faq-assistant/internal/infrastructure/cache/lru"
	rediscache "github.com/kirillkom/campus-faq-assistant/internal/infrastructure/cache/redis"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/chunking"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/report/xlsx"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/vector/memory"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/campus-faq-assistant/internal/observability/metrics"
)

// Options tune wiring per binary. A nil Registerer disables RAG and upstream metrics.
type Options struct {
	Service    string
	Registerer prometheus.Registerer
}

type App struct {
	Config config.Config

	Queue         ports.MessageQueue
	Repo          ports.DocumentRepository
	IngestUC      ports.DocumentIngestor
	ProcessUC     ports.DocumentProcessor
	QueryUC       ports.FAQQueryService
	MaintenanceUC ports.MaintenanceService
	AnalyticsUC   ports.AnalyticsService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	policy := resilience.DefaultPolicy()
	policy.MaxAttempts = cfg.ResilienceRetryMaxAttempts
	policy.Breaker.Enabled = cfg.ResilienceBreakerEnabled
	executor := resilience.NewExecutor(policy).
		WithPolicy("ollama.embed_query", resilience.QueryPathPolicy(policy)).
		WithPolicy("qdrant.search", resilience.QueryPathPolicy(policy)).
		WithPolicy("qdrant.scroll", resilience.QueryPathPolicy(policy)).
		WithPolicy("ollama.generate", resilience.GenerationPolicy(policy))
	if opts.Registerer != nil {
		executor.WithHook(metrics.NewUpstreamMetrics(opts.Service, opts.Registerer))
	}

	vocab, err := loadVocabulary(cfg)
	if err != nil {
		return nil, err
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	queryLog := postgres.NewQueryEventRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		Workers:            cfg.WorkerConcurrency,
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	store := newChunkStore(cfg, executor)
	cache, closeCache := newAnswerCache(cfg)

	var observer ports.QueryObserver
	if opts.Registerer != nil {
		observer = metrics.NewRAGMetrics(opts.Service, opts.Registerer)
	}

	engine := retrieval.NewEngine(vocab, embedder, store, retrieval.EngineOptions{
		MinRelevance: cfg.RAGMinRelevance,
		MaxSources:   cfg.RAGMaxSources,
	})
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extractor := plaintext.NewExtractor(storage)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(
		repo,
		extractor,
		chunker,
		chunking.NewTokenCounter(cfg.TokenEncoding),
		usecase.NewEnricher(vocab),
		embedder,
		store,
	)
	queryUC := usecase.NewQueryUseCase(engine, generator, cache, queryLog, observer)
	maintenanceUC := usecase.NewMaintenanceUseCase(repo, store, cache, queue)
	analyticsUC := usecase.NewAnalyticsUseCase(queryLog, xlsx.NewReportWriter())

	slog.Info("bootstrap_ready",
		"chunk_store", cfg.ChunkStore,
		"cache_backend", cfg.CacheBackend,
		"vocabulary_file", cfg.VocabularyFile,
	)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:      ingestUC,
		ProcessUC:     processUC,
		QueryUC:       queryUC,
		MaintenanceUC: maintenanceUC,
		AnalyticsUC:   analyticsUC,

		closeFn: func() {
			queue.Close()
			closeCache()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func loadVocabulary(cfg config.Config) (*retrieval.Vocabulary, error) {
	if cfg.VocabularyFile == "" {
		vocab, err := retrieval.DefaultVocabulary()
		if err != nil {
			return nil, fmt.Errorf("load embedded vocabulary: %w", err)
		}
		return vocab, nil
	}
	vocab, err := retrieval.LoadVocabulary(cfg.VocabularyFile)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary %s: %w", cfg.VocabularyFile, err)
	}
	return vocab, nil
}

func newChunkStore(cfg config.Config, executor *resilience.Executor) ports.ChunkStore {
	if cfg.ChunkStore == config.ChunkStoreMemory {
		return memory.New()
	}
	if cfg.ChunkStore != config.ChunkStoreQdrant {
		slog.Warn("unknown_chunk_store", "chunk_store", cfg.ChunkStore, "fallback", config.ChunkStoreQdrant)
	}
	return qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, executor)
}

// newAnswerCache returns a nil cache for the "none" backend.
func newAnswerCache(cfg config.Config) (ports.AnswerCache, func()) {
	switch cfg.CacheBackend {
	case config.CacheBackendNone:
		return nil, func() {}
	case config.CacheBackendRedis:
		client := rediscache.NewClient(cfg.RedisAddr)
		return rediscache.New(client, cfg.CacheTTL), func() { _ = client.Close() }
	default:
		return lrucache.New(cfg.CacheSize, cfg.CacheTTL), func() {}
	}
}
