package ai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	config *ClientConfig
	client *openai.Client
}

// NewOpenAIClient creates a client for the OpenAI embeddings API.
func NewOpenAIClient(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, errors.New("SFF_API_KEY unset")
	}

	// Set default model if not provided
	if config.Model == "" {
		config.Model = "text-embedding-3-small"
	}
	if config.Dims == 0 {
		// Set default dimensions based on the embedding model
		switch config.Model {
		case "text-embedding-3-large":
			config.Dims = 3072
		default:
			// text-embedding-3-small and ada-002 dimensions
			config.Dims = 1536
		}
	}

	return &OpenAIClient{
		config: config,
		client: openai.NewClient(config.APIKey),
	}, nil
}

// Encode embeds all texts in a single API request, index-aligned.
func (c *OpenAIClient) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.config.Model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai embeddings: vector index %d out of range", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i := range d.Embedding {
			v[i] = float32(d.Embedding[i])
		}
		if c.config.Normalize {
			l2Normalize(v)
		}
		out[d.Index] = v
	}
	return out, nil
}

// Dims returns the embedding dimension
func (c *OpenAIClient) Dims() int {
	return c.config.Dims
}

// ModelName returns the model identifier
func (c *OpenAIClient) ModelName() string {
	return c.config.Model
}
