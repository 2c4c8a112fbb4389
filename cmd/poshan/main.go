package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/poshan-ai/poshan/internal/classify"
	"github.com/poshan-ai/poshan/internal/config"
	dbRedis "github.com/poshan-ai/poshan/internal/db/redis"
	"github.com/poshan-ai/poshan/internal/domain"
	logpkg "github.com/poshan-ai/poshan/internal/logger"
	"github.com/poshan-ai/poshan/internal/metrics"
	"github.com/poshan-ai/poshan/internal/repository/corpus"
	"github.com/poshan-ai/poshan/internal/repository/embcache"
	"github.com/poshan-ai/poshan/internal/repository/vecindex"
	chiTransport "github.com/poshan-ai/poshan/internal/transport/chi"
	openaiEmb "github.com/poshan-ai/poshan/internal/transport/openai"
	chatuc "github.com/poshan-ai/poshan/internal/usecase/chat"
	healthuc "github.com/poshan-ai/poshan/internal/usecase/health"
	ingestuc "github.com/poshan-ai/poshan/internal/usecase/ingest"
	retrievaluc "github.com/poshan-ai/poshan/internal/usecase/retrieval"
	"github.com/poshan-ai/poshan/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting poshan API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Store not ready", zap.Error(err))
	}
	logger.Info("Connected to Redis")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	// Embedder chain: OpenAI -> Cached -> Instruction (outermost, so the
	// cache key includes the instruction prefix)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:       cfg.Embedding.APIKey,
		BaseURL:      cfg.Embedding.BaseURL,
		Model:        cfg.Embedding.Model,
		Dimensions:   cfg.Embedding.Dimensions,
		Provider:     cfg.Embedding.Provider,
		MaxAttempts:  cfg.Embedding.MaxAttempts,
		RetryBackoff: time.Duration(cfg.Embedding.RetryBackoffMs) * time.Millisecond,
		Logger:       logger,
	})
	cached := embcache.New(
		base,
		cfg.Cache.MaxEntries,
		time.Duration(cfg.Cache.TTLSec)*time.Second,
		metrics.EmbeddingCacheTotal,
		logger,
	)
	queryEmbedder := withInstruction(cached, cfg.Embedding.QueryInstruction)
	docEmbedder := batchEmbedderWithInstruction(cached, cfg.Embedding.DocumentInstruction)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Startup gate: without the corpus index, retrieval would silently
	// return nothing, so refuse to serve instead.
	corpusRepo := corpus.New(store, logger)
	if err := corpusRepo.EnsureIndex(ctx, corpus.IndexSettings{
		Dimensions:      cfg.Embedding.Dimensions,
		HNSWM:           cfg.Index.HNSWM,
		HNSWEFConstruct: cfg.Index.HNSWEFConstruct,
		HNSWEFRuntime:   cfg.Index.HNSWEFRuntime,
	}); err != nil {
		logger.Fatal("Corpus index unavailable", zap.Error(err))
	}

	searchRepo, err := vecindex.New(store, vecindex.Config{
		IndexName:      corpus.IndexName,
		PoolMultiplier: cfg.Index.PoolMultiplier,
		MinScore:       cfg.Index.MinScore,
		EFRuntime:      cfg.Index.HNSWEFRuntime,
	}, logger)
	if err != nil {
		logger.Fatal("Invalid search configuration", zap.Error(err))
	}

	// Use case services
	classifier := classify.New(classify.DefaultRules(), logger).
		WithNearMissLogging(*cfg.Classifier.NearMissLogging)
	retrievalSvc := retrievaluc.New(
		queryEmbedder, searchRepo,
		cfg.Pipeline.TopKPerStage, cfg.Pipeline.StageConcurrency, logger,
	)
	chatSvc := chatuc.New(classifier, retrievalSvc, cfg.Pipeline.DefaultTopK, cfg.Pipeline.Lambda, logger)
	ingestSvc := ingestuc.New(docEmbedder, corpusRepo, cfg.Embedding.Dimensions, logger).
		WithEmbedChunkSize(cfg.Embedding.MaxBatchSize)
	healthSvc := healthuc.New(store, store, corpus.IndexName, cached)

	server := chiTransport.NewServer(chatSvc, ingestSvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// withInstruction wraps an embedder with an instruction prefix when one is
// configured.
func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}

// batchEmbedderWithInstruction is withInstruction for the ingestion path,
// which needs the batch contract.
func batchEmbedderWithInstruction(e *embcache.CachedEmbedder, instruction string) ingestuc.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}
