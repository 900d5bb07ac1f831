// Package ranker scores chunk embeddings against a query embedding and
// produces a descending total order over the results.
package ranker

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/do-me/sff/pkg/models"
)

// Cosine returns the cosine similarity of a and b. When either vector has
// zero norm the score is defined as exactly 0, never NaN; a degenerate
// (empty-meaning) chunk is valid input, not an error.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores every chunk embedding against the query and returns the
// scored chunks sorted by descending score. Scoring runs in parallel over
// disjoint index ranges; each result keeps its chunk's original path and
// text pairing. Tie order among equal scores is unspecified.
func Rank(query []float32, embeddings [][]float32, chunks []models.TextChunk) ([]models.ScoredChunk, error) {
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("ranker: %d embeddings for %d chunks", len(embeddings), len(chunks))
	}
	for i, e := range embeddings {
		if len(e) != len(query) {
			return nil, fmt.Errorf("ranker: embedding %d has %d dims, query has %d", i, len(e), len(query))
		}
	}

	results := make([]models.ScoredChunk, len(chunks))

	workers := runtime.NumCPU()
	if workers > len(chunks) {
		workers = len(chunks)
	}
	if workers < 1 {
		workers = 1
	}
	span := (len(chunks) + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < len(chunks); start += span {
		end := start + span
		if end > len(chunks) {
			end = len(chunks)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				results[i] = models.ScoredChunk{
					Score: Cosine(query, embeddings[i]),
					Path:  chunks[i].Path,
					Text:  chunks[i].Text,
				}
			}
		}(start, end)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return scoreLess(results[j].Score, results[i].Score)
	})
	return results, nil
}

// Top returns the first min(k, len) ranked results unchanged in order.
// k <= 0 yields an empty selection.
func Top(results []models.ScoredChunk, k int) []models.ScoredChunk {
	if k <= 0 {
		return nil
	}
	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}

// scoreLess is a total order over float64 scores: NaN compares least and
// equal to other NaNs, so sorting never panics on degenerate input.
func scoreLess(a, b float64) bool {
	if math.IsNaN(a) {
		return !math.IsNaN(b)
	}
	if math.IsNaN(b) {
		return false
	}
	return a < b
}
