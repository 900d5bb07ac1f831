package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

const (
	defaultOllamaHost  = "http://localhost:11434"
	defaultOllamaModel = "nomic-embed-text"
)

// OllamaClient generates embeddings using Ollama's HTTP API, which serves
// locally-run models. No API key required.
type OllamaClient struct {
	config *ClientConfig
	http   *http.Client
	dims   atomic.Int64
}

// NewOllamaClient creates a new Ollama embedding client.
func NewOllamaClient(config *ClientConfig) *OllamaClient {
	if config.Host == "" {
		config.Host = defaultOllamaHost
	}
	if config.Model == "" {
		config.Model = defaultOllamaModel
	}

	// Connection pooling sized for concurrent batch submission. Short idle
	// timeout so a single-shot CLI run releases sockets promptly.
	transport := &http.Transport{
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     10 * time.Second,
	}

	c := &OllamaClient{
		config: config,
		http: &http.Client{
			Timeout:   120 * time.Second,
			Transport: transport,
		},
	}
	c.dims.Store(int64(config.Dims))
	return c
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// Encode embeds all texts in a single /api/embed request, index-aligned.
func (c *OllamaClient) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{
		Model: c.config.Model,
		Input: texts,
	})
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(c.config.Host, "/") + "/api/embed"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama embed %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ollama response: %w", err)
	}
	if out.Error != "" {
		return nil, errors.New("ollama: " + out.Error)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d vectors for %d inputs", len(out.Embeddings), len(texts))
	}

	for _, v := range out.Embeddings {
		if c.config.Normalize {
			l2Normalize(v)
		}
	}
	if len(out.Embeddings) > 0 {
		c.dims.Store(int64(len(out.Embeddings[0])))
	}
	return out.Embeddings, nil
}

// Dims returns the embedding dimension, detected from the first response
// when not configured.
func (c *OllamaClient) Dims() int {
	return int(c.dims.Load())
}

// ModelName returns the model identifier
func (c *OllamaClient) ModelName() string {
	return c.config.Model
}
