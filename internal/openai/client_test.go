package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/flowgenius/flowdex/internal/domain"
)

// MockOpenAIAPI is a mock for the OpenAI API
type MockOpenAIAPI struct {
	mock.Mock
}

func (m *MockOpenAIAPI) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func makeEmbeddings(n, dim int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, dim)
		for j := range out[i] {
			out[i][j] = float32(i*dim+j) * 0.001
		}
	}
	return out
}

func TestClient_GenerateEmbeddings_Success(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 1536}

	ctx := context.Background()
	texts := []string{"first chunk", "second chunk", "third chunk"}
	expected := makeEmbeddings(3, 1536)

	mockAPI.On("CreateEmbeddings", ctx, texts).Return(expected, nil)

	embeddings, err := client.GenerateEmbeddings(ctx, texts)

	assert.NoError(t, err)
	assert.Len(t, embeddings, 3)
	assert.Equal(t, expected, embeddings)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbeddings_EmptyBatch(t *testing.T) {
	client := NewClient("")

	embeddings, err := client.GenerateEmbeddings(context.Background(), nil)

	assert.Nil(t, embeddings)
	assert.Equal(t, ErrEmptyBatch, err)
}

func TestClient_GenerateEmbeddings_EmptyText(t *testing.T) {
	client := NewClient("")

	embeddings, err := client.GenerateEmbeddings(context.Background(), []string{"ok", ""})

	assert.Nil(t, embeddings)
	assert.Equal(t, ErrEmptyText, err)
}

func TestClient_GenerateEmbeddings_APIError(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 1536}

	ctx := context.Background()
	texts := []string{"some text"}
	apiErr := errors.New("API rate limit exceeded")

	mockAPI.On("CreateEmbeddings", ctx, texts).Return(nil, apiErr)

	embeddings, err := client.GenerateEmbeddings(ctx, texts)

	assert.Error(t, err)
	assert.Nil(t, embeddings)
	assert.Contains(t, err.Error(), "failed to create embeddings")
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbeddings_CountMismatch(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 1536}

	ctx := context.Background()
	texts := []string{"first", "second"}

	mockAPI.On("CreateEmbeddings", ctx, texts).Return(makeEmbeddings(1, 1536), nil)

	embeddings, err := client.GenerateEmbeddings(ctx, texts)

	assert.Nil(t, embeddings)
	assert.ErrorIs(t, err, domain.ErrEmbeddingCountMismatch)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbeddings_WrongDimensions(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 1536}

	ctx := context.Background()
	texts := []string{"some text"}

	mockAPI.On("CreateEmbeddings", ctx, texts).Return(makeEmbeddings(1, 512), nil)

	embeddings, err := client.GenerateEmbeddings(ctx, texts)

	assert.Nil(t, embeddings)
	assert.ErrorIs(t, err, domain.ErrEmbeddingDimensionMismatch)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_Single(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 1536}

	ctx := context.Background()
	expected := makeEmbeddings(1, 1536)

	mockAPI.On("CreateEmbeddings", ctx, []string{"single text"}).Return(expected, nil)

	embedding, err := client.GenerateEmbedding(ctx, "single text")

	assert.NoError(t, err)
	assert.Equal(t, expected[0], embedding)
	mockAPI.AssertExpectations(t)
}

func TestNewClientWithConfig_Defaults(t *testing.T) {
	client := NewClientWithConfig(Config{APIKey: "test-api-key"})

	assert.NotNil(t, client)
	assert.NotNil(t, client.api)
	assert.Equal(t, DefaultEmbeddingDimensions, client.Dimensions())
}

func TestNewClientFromEnv_NoAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	client, err := NewClientFromEnv()

	assert.Nil(t, client)
	assert.Equal(t, ErrNoAPIKey, err)
}

func TestNewClientFromEnv_WithAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-api-key")

	client, err := NewClientFromEnv()

	assert.NotNil(t, client)
	assert.NoError(t, err)
}
