//go:build integration

package openai

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_GenerateEmbeddings_RealAPI(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set, skipping integration test")
	}

	client := NewClient(apiKey)
	ctx := context.Background()
	texts := []string{
		"This is a test document for generating embeddings.",
		"A second chunk to exercise the batch path.",
	}

	embeddings, err := client.GenerateEmbeddings(ctx, texts)

	require.NoError(t, err)
	require.Len(t, embeddings, len(texts))
	for _, e := range embeddings {
		assert.Len(t, e, DefaultEmbeddingDimensions)
	}
}
