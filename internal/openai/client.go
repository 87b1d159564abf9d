package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/flowgenius/flowdex/internal/domain"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultEmbeddingDimensions is the dimension requested from the model
	DefaultEmbeddingDimensions = 1536
)

var (
	// ErrEmptyBatch is returned when no texts are provided
	ErrEmptyBatch = errors.New("batch cannot be empty")
	// ErrEmptyText is returned when a text in the batch is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// EmbeddingModelFromName converts a configured model name to the typed model
// identifier, falling back to the default for an empty name.
func EmbeddingModelFromName(name string) openai.EmbeddingModel {
	if name == "" {
		return DefaultEmbeddingModel
	}
	return openai.EmbeddingModel(name)
}

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Client wraps the OpenAI API client with batch and dimension checks.
type Client struct {
	api        EmbeddingAPI
	dimensions int
}

type OpenAIAdapter struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

func NewOpenAIAdapter(apiKey string, model openai.EmbeddingModel, dimensions int) *OpenAIAdapter {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &OpenAIAdapter{
		client:     openai.NewClient(apiKey),
		model:      model,
		dimensions: dimensions,
	}
}

// CreateEmbeddings calls the OpenAI API to embed a batch of texts in one
// request, preserving input order.
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      a.model,
		Dimensions: a.dimensions,
	})
	if err != nil {
		return nil, err
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}

type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &Client{
		api:        NewOpenAIAdapter(cfg.APIKey, cfg.EmbeddingModel, dimensions),
		dimensions: dimensions,
	}
}

// NewClientFromEnv creates a new OpenAI client using OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// Dimensions returns the embedding dimension this client validates against.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// GenerateEmbeddings embeds a batch of texts. The result has exactly one
// embedding per input text, in input order, each with the configured
// dimension.
func (c *Client) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyBatch
	}
	for _, text := range texts {
		if text == "" {
			return nil, ErrEmptyText
		}
	}

	embeddings, err := c.api.CreateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(embeddings) != len(texts) {
		return nil, domain.ErrEmbeddingCountMismatch
	}
	for _, e := range embeddings {
		if len(e) != c.dimensions {
			return nil, domain.ErrEmbeddingDimensionMismatch
		}
	}

	return embeddings, nil
}

// GenerateEmbedding embeds a single text.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.GenerateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}
