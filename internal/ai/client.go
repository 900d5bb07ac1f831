package ai

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
)

// Client produces fixed-dimensional embeddings for batches of text.
// Encode output is index-aligned with its input and must be safe for
// concurrent calls; the ranker expects unit-norm vectors when Normalize
// is set at load time.
type Client interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Dims() int
	ModelName() string
}

// Provider is enumeration of supported embedding providers
type Provider string

const (
	ProviderOpenAI   Provider = "openai"
	ProviderVertexAI Provider = "vertexai"
	ProviderOllama   Provider = "ollama"
	ProviderStub     Provider = "stub"
)

// ClientConfig holds configuration for embedding clients
type ClientConfig struct {
	APIKey    string
	Model     string
	Dims      int
	ProjectID string
	Location  string
	Host      string
	Provider  Provider
	Normalize bool
}

// NewClient creates a new embedding client based on configuration. The
// client is constructed once and shared read-only across all concurrent
// Encode calls for the lifetime of the run.
func NewClient(ctx context.Context, config *ClientConfig) (Client, error) {
	if config == nil {
		return nil, errors.New("client config is required")
	}

	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(config)
	case ProviderVertexAI:
		return NewVertexAIClient(ctx, config)
	case ProviderOllama:
		return NewOllamaClient(config), nil
	case ProviderStub:
		return NewStubClient(config.Dims), nil
	default:
		return nil, errors.New("unsupported provider: " + string(config.Provider))
	}
}

// l2Normalize scales v to unit length in place. Zero vectors are left alone.
func l2Normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}

// StubClient is an offline implementation of the Client interface. Vectors
// are bag-of-words hashes, so identical texts encode identically and texts
// sharing words land near each other. Used by tests and --provider stub.
type StubClient struct {
	dims int
}

// NewStubClient creates a new StubClient
func NewStubClient(dims int) *StubClient {
	if dims <= 0 {
		dims = 64
	}
	return &StubClient{dims: dims}
}

// Encode hashes each lowercased word into one of dims buckets and
// normalizes the resulting counts.
func (s *StubClient) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, s.dims)
		for _, w := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(w))
			vec[int(h.Sum32()%uint32(s.dims))]++
		}
		l2Normalize(vec)
		out[i] = vec
	}
	return out, nil
}

// Dims returns the embedding dimension
func (s *StubClient) Dims() int {
	return s.dims
}

// ModelName returns the model identifier
func (s *StubClient) ModelName() string {
	return "stub"
}
