// Package embedder turns chunks into embeddings through bounded, concurrent
// batch calls to an embedding provider.
package embedder

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/do-me/sff/internal/ai"
	"github.com/do-me/sff/pkg/models"
)

// DefaultBatchSize is how many chunks are embedded per provider call.
const DefaultBatchSize = 128

// Batcher partitions chunks into fixed-size batches and submits them to the
// provider concurrently. The output embedding slice is always index-aligned
// with the input chunks regardless of batch completion order.
type Batcher struct {
	Client    ai.Client
	BatchSize int
	Workers   int

	embedded atomic.Int64
}

// New creates a Batcher for the given client.
func New(client ai.Client, batchSize, workers int) *Batcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Batcher{
		Client:    client,
		BatchSize: batchSize,
		Workers:   workers,
	}
}

// Embedded reports how many chunks have been embedded so far. Safe to read
// from a concurrent observer such as a progress bar.
func (b *Batcher) Embedded() int64 {
	return b.embedded.Load()
}

// EmbedChunks embeds every chunk and returns one vector per chunk at the
// chunk's original index. Any batch failure aborts the whole operation; no
// partial result is returned.
func (b *Batcher) EmbedChunks(ctx context.Context, chunks []models.TextChunk) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, errors.New("no chunks to embed")
	}

	out := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.Workers)

	for start := 0; start < len(chunks); start += b.BatchSize {
		end := start + b.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		g.Go(func() error {
			texts := make([]string, end-start)
			for i, ch := range chunks[start:end] {
				texts[i] = ch.Text
			}

			vecs, err := b.Client.Encode(gctx, texts)
			if err != nil {
				return fmt.Errorf("embedding batch [%d:%d]: %w", start, end, err)
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("embedding batch [%d:%d]: got %d vectors for %d chunks", start, end, len(vecs), len(texts))
			}

			// Each goroutine owns a disjoint index range; no lock needed.
			copy(out[start:end], vecs)
			b.embedded.Add(int64(end - start))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := checkDims(out); err != nil {
		return nil, err
	}
	return out, nil
}

// EmbedQuery encodes the query as an independent single-element batch.
func (b *Batcher) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := b.Client.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding query: got %d vectors for 1 input", len(vecs))
	}
	return vecs[0], nil
}

// checkDims verifies every vector has the same dimensionality.
func checkDims(vecs [][]float32) error {
	if len(vecs) == 0 {
		return nil
	}
	dims := len(vecs[0])
	for i, v := range vecs {
		if len(v) != dims {
			return fmt.Errorf("embedding dimension mismatch: vector %d has %d dims, expected %d", i, len(v), dims)
		}
	}
	return nil
}
