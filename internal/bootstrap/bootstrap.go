package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/nqhuy/admissions-assistant/internal/config"
	"github.com/nqhuy/admissions-assistant/internal/core/ports"
	"github.com/nqhuy/admissions-assistant/internal/core/usecase"
	"github.com/nqhuy/admissions-assistant/internal/infrastructure/embedding/ollama"
	"github.com/nqhuy/admissions-assistant/internal/infrastructure/llm/groq"
	"github.com/nqhuy/admissions-assistant/internal/infrastructure/queue/nats"
	"github.com/nqhuy/admissions-assistant/internal/infrastructure/repository/postgres"
	"github.com/nqhuy/admissions-assistant/internal/infrastructure/resilience"
	"github.com/nqhuy/admissions-assistant/internal/infrastructure/scorer/reranker"
	"github.com/nqhuy/admissions-assistant/internal/infrastructure/vector/qdrant"
	"github.com/nqhuy/admissions-assistant/internal/infrastructure/websearch/serper"
	"github.com/nqhuy/admissions-assistant/internal/observability/metrics"
	"github.com/nqhuy/admissions-assistant/internal/security"
)

// API holds everything the query-serving binary needs.
type API struct {
	Config   config.Config
	AnswerUC ports.QueryAnswerer
	Metrics  *metrics.APIMetrics

	closeFn func()
}

func NewAPI(cfg config.Config) (*API, error) {
	signatures, err := security.LoadSignatures(cfg.GateSignaturesPath)
	if err != nil {
		return nil, fmt.Errorf("load gate signatures: %w", err)
	}
	gate, err := security.NewGate(security.Config{
		MinLength:    cfg.GateMinLength,
		MaxLength:    cfg.GateMaxLength,
		MaxRepeatRun: cfg.GateMaxRepeatRun,
		Window:       time.Duration(cfg.GateWindowSeconds) * time.Second,
		MaxRequests:  cfg.GateMaxRequests,
		ShardCount:   cfg.GateShardCount,
	}, signatures)
	if err != nil {
		return nil, fmt.Errorf("init input gate: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	embedder := ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel)
	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, qdrant.Options{
		ResilienceExecutor: executor,
	})
	scorer := reranker.New(cfg.RerankerURL, reranker.Options{
		ResilienceExecutor: executor,
	})

	grader := usecase.NewGrader(scorer, usecase.GraderConfig{
		HighThreshold: cfg.GradeHighThreshold,
		LowThreshold:  cfg.GradeLowThreshold,
		MaxScoreRunes: cfg.GradeMaxScoreRunes,
	})
	retriever := usecase.NewFanoutRetriever(embedder, vectorDB, grader, usecase.RetrieverConfig{
		TopKPerQuery:    cfg.TopKPerQuery,
		MergeMaxChunks:  cfg.MergeMaxChunks,
		MergeMaxPerURL:  cfg.MergeMaxPerURL,
		SubQueryTimeout: time.Duration(cfg.SubQueryTimeoutSeconds) * time.Second,
	})

	groqClient := groq.New(groq.ClientConfig{
		BaseURL:     cfg.GroqURL,
		APIKey:      cfg.GroqAPIKey,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
		PacingRPS:   cfg.LLMPacingRPS,
		PacingBurst: cfg.LLMPacingBurst,
	}, cfg.ModelPool)
	generator := groq.NewFailoverCaller(groqClient, groq.PoolConfig{
		Models:           cfg.ModelPool,
		MaxFailures:      cfg.ModelMaxFailures,
		Cooldown:         time.Duration(cfg.ModelCooldownSeconds) * time.Second,
		RateLimitBackoff: time.Duration(cfg.RateLimitBackoffMillis) * time.Millisecond,
		CacheEnabled:     cfg.ResponseCacheEnabled,
		CacheTTL:         time.Duration(cfg.ResponseCacheTTLSecs) * time.Second,
	})

	webSearcher := serper.New(cfg.SerperURL, cfg.SerperAPIKey, serper.Options{
		MaxResults: cfg.WebMaxResults,
	})

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	var decomposer ports.QueryDecomposer
	if cfg.DecomposeEnabled {
		decomposer = usecase.NewLLMDecomposer(generator, cfg.MaxSubQueries)
	}

	answerUC := usecase.NewAnswerUseCase(
		gate,
		decomposer,
		retriever,
		grader,
		generator,
		webSearcher,
		queue,
		usecase.AnswerConfig{
			MinCorrect:     cfg.ActionMinCorrect,
			MaxSubQueries:  cfg.MaxSubQueries,
			RequestTimeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
	)

	return &API{
		Config:   cfg,
		AnswerUC: answerUC,
		Metrics:  metrics.NewAPIMetrics("api"),

		closeFn: func() {
			queue.Close()
		},
	}, nil
}

func (a *API) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// Worker holds everything the audit-trail binary needs.
type Worker struct {
	Config  config.Config
	Queue   *nats.Queue
	Repo    *postgres.QueryLogRepository
	Metrics *metrics.WorkerMetrics

	closeFn func()
}

func NewWorker(ctx context.Context, cfg config.Config) (*Worker, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewQueryLogRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	return &Worker{
		Config:  cfg,
		Queue:   queue,
		Repo:    repo,
		Metrics: metrics.NewWorkerMetrics("worker"),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}
