package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/flowgenius/flowdex/internal/domain"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`

	// Pipeline tuning. Sizes are in approximate tokens, the floor in characters.
	ChunkSize           int     `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap        int     `envconfig:"CHUNK_OVERLAP" default:"200"`
	BatchSize           int     `envconfig:"BATCH_SIZE" default:"10"`
	MinChunkChars       int     `envconfig:"MIN_CHUNK_CHARS" default:"100"`
	RateLimitDelayMS    int     `envconfig:"RATE_LIMIT_DELAY_MS" default:"100"`
	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.75"`

	// S3-compatible storage for s3:// document sources
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"flowdex-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("FLOWDEX", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate performs the eager range checks for the pipeline knobs so that a
// bad combination is rejected at startup rather than deep inside a stage.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return domain.NewDomainError(domain.ErrCodeConfig, "chunk_size must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return domain.NewDomainError(domain.ErrCodeConfig, "chunk_overlap must be non-negative and less than chunk_size")
	}
	if c.BatchSize <= 0 {
		return domain.NewDomainError(domain.ErrCodeConfig, "batch_size must be positive")
	}
	if c.MinChunkChars < 0 {
		return domain.NewDomainError(domain.ErrCodeConfig, "min_chunk_chars cannot be negative")
	}
	if c.RateLimitDelayMS < 0 {
		return domain.NewDomainError(domain.ErrCodeConfig, "rate_limit_delay_ms cannot be negative")
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return domain.NewDomainError(domain.ErrCodeConfig, "similarity_threshold must be within [0,1]")
	}
	if c.EmbeddingDimensions <= 0 {
		return domain.NewDomainError(domain.ErrCodeConfig, "embedding_dimensions must be positive")
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
