// Package indexer implements the flowdex commands that run the indexing
// pipeline directly against the database, without going through the API.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowgenius/flowdex/internal/config"
	"github.com/flowgenius/flowdex/internal/database"
	"github.com/flowgenius/flowdex/internal/openai"
	"github.com/flowgenius/flowdex/internal/pipeline"
	"github.com/flowgenius/flowdex/internal/repository"
	"github.com/flowgenius/flowdex/internal/storage"
)

// Runtime bundles the wired pipeline and repositories for one CLI invocation.
type Runtime struct {
	Config   *config.Config
	Pool     *pgxpool.Pool
	Pipeline *pipeline.Pipeline
	Tools    *repository.ToolRepository
	Chunks   *repository.ChunkRepository
}

// newRuntime loads configuration, connects to the database and wires the
// pipeline. requireOpenAI is set by commands that will actually embed;
// read-only commands work without a key. Callers must Close when done.
func newRuntime(ctx context.Context, requireOpenAI bool) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if requireOpenAI && !cfg.HasOpenAI() {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for indexing commands")
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	toolRepo := repository.NewToolRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)

	var objects pipeline.ObjectStore
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		objects = s3Client
	}

	embedder := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      openai.EmbeddingModelFromName(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})

	opts := pipeline.Options{
		ChunkSize:           cfg.ChunkSize,
		ChunkOverlap:        cfg.ChunkOverlap,
		BatchSize:           cfg.BatchSize,
		MinChunkChars:       cfg.MinChunkChars,
		RateLimitDelay:      time.Duration(cfg.RateLimitDelayMS) * time.Millisecond,
		MaxRetries:          pipeline.DefaultOptions().MaxRetries,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		FetchTimeout:        pipeline.DefaultOptions().FetchTimeout,
	}

	loader := pipeline.NewLoader(opts.FetchTimeout, objects)
	p, err := pipeline.New(loader, embedder, chunkRepo, toolRepo, opts)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &Runtime{
		Config:   cfg,
		Pool:     pool,
		Pipeline: p,
		Tools:    toolRepo,
		Chunks:   chunkRepo,
	}, nil
}

func (r *Runtime) Close() {
	r.Pool.Close()
}
