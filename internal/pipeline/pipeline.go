// Package pipeline sequences the search stages: discovery -> embedding ->
// ranking -> selection. It is the single point that turns stage failures
// into a user-visible error.
package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/do-me/sff/internal/ai"
	"github.com/do-me/sff/internal/embedder"
	"github.com/do-me/sff/internal/extractor"
	"github.com/do-me/sff/internal/progress"
	"github.com/do-me/sff/internal/ranker"
	"github.com/do-me/sff/pkg/models"
)

// ErrNoFiles signals that discovery produced zero chunks. The caller reports
// "nothing to search" and exits cleanly; it is not a pipeline failure.
var ErrNoFiles = errors.New("no matching files found")

// progressThreshold shows the embedding progress bar on large runs even
// without --verbose.
const progressThreshold = 10000

// Options configure one search run.
type Options struct {
	Path         string
	Query        string
	Recursive    bool
	Extensions   []string
	ChunkWords   int
	BatchSize    int
	Workers      int
	Limit        int
	ShowProgress bool
	ProgressOut  io.Writer
}

// Timings records per-stage wall clock, for verbose reporting.
type Timings struct {
	Extract time.Duration
	Embed   time.Duration
	Rank    time.Duration
}

// Report is the outcome of one run: the top-K results plus run accounting.
type Report struct {
	Results     []models.ScoredChunk
	TotalChunks int
	FileCount   int
	Elapsed     time.Duration
	Timings     Timings
}

// Run executes the whole pipeline against the shared, read-only client.
func Run(ctx context.Context, client ai.Client, opts Options) (*Report, error) {
	start := time.Now()

	// 1. Discover, read and chunk files (I/O-bound).
	extractStart := time.Now()
	ex := extractor.New(opts.Path, opts.Recursive, opts.Extensions, opts.ChunkWords)
	ex.Workers = opts.Workers
	chunks, fileCount, err := ex.Extract(ctx)
	if err != nil {
		return nil, err
	}
	extractTime := time.Since(extractStart)
	logStage("discovery", "io", extractTime)

	if len(chunks) == 0 {
		return nil, ErrNoFiles
	}

	batcher := embedder.New(client, opts.BatchSize, opts.Workers)

	// 2. Encode the query as its own single-element batch (CPU-bound).
	embedStart := time.Now()
	queryVec, err := batcher.EmbedQuery(ctx, opts.Query)
	if err != nil {
		return nil, err
	}

	// 3. Embed all chunks, observed by an optional progress bar.
	var tracker *progress.Tracker
	if opts.ProgressOut != nil && (opts.ShowProgress || len(chunks) > progressThreshold) {
		tracker = progress.NewTracker(opts.ProgressOut, int64(len(chunks)), batcher.Embedded, "Embedding file chunks...")
		tracker.Start()
	}
	chunkVecs, err := batcher.EmbedChunks(ctx, chunks)
	if tracker != nil {
		tracker.Stop()
	}
	if err != nil {
		return nil, err
	}
	embedTime := time.Since(embedStart)
	logStage("embedding", "cpu", embedTime)

	// 4. Score and sort (CPU-bound). Rank rejects query/chunk dim mismatch.
	rankStart := time.Now()
	ranked, err := ranker.Rank(queryVec, chunkVecs, chunks)
	if err != nil {
		return nil, err
	}
	rankTime := time.Since(rankStart)
	logStage("ranking", "cpu", rankTime)

	// 5. Select the top-K, order preserved.
	results := ranker.Top(ranked, opts.Limit)

	return &Report{
		Results:     results,
		TotalChunks: len(chunks),
		FileCount:   fileCount,
		Elapsed:     time.Since(start),
		Timings: Timings{
			Extract: extractTime,
			Embed:   embedTime,
			Rank:    rankTime,
		},
	}, nil
}

func logStage(stage, bound string, d time.Duration) {
	log.Debug().Str("stage", stage).Str("bound", bound).Dur("elapsed", d).Msg("stage complete")
}
