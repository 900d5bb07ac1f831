package ranker

import (
	"math"
	"testing"

	"github.com/do-me/sff/pkg/models"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical unit vectors", a: []float32{1, 0}, b: []float32{1, 0}, want: 1},
		{name: "orthogonal unit vectors", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite vectors", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero against anything", a: []float32{0, 0}, b: []float32{0.5, 0.5}, want: 0},
		{name: "both zero", a: []float32{0, 0}, b: []float32{0, 0}, want: 0},
		{name: "scale invariant", a: []float32{2, 0}, b: []float32{7, 0}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.IsNaN(got) {
				t.Fatalf("Cosine returned NaN")
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRank(t *testing.T) {
	query := []float32{1, 0}
	embeddings := [][]float32{
		{0, 1},          // orthogonal, 0.0
		{1, 0},          // identical, 1.0
		{0.7071, 0.7071}, // ~0.7071
		{0, 0},          // zero norm, defined 0.0
	}
	chunks := []models.TextChunk{
		{Path: "a.txt", Text: "orthogonal"},
		{Path: "a.txt", Text: "identical"},
		{Path: "b.md", Text: "diagonal"},
		{Path: "b.md", Text: "empty"},
	}

	results, err := Rank(query, embeddings, chunks)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(results) != len(chunks) {
		t.Fatalf("expected %d results, got %d", len(chunks), len(results))
	}

	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("scores not non-increasing at %d: %v > %v", i, results[i].Score, results[i-1].Score)
		}
	}

	if results[0].Text != "identical" || results[0].Score != 1 {
		t.Errorf("top result = %+v, want the identical chunk at score 1", results[0])
	}
	if results[1].Text != "diagonal" || results[1].Path != "b.md" {
		t.Errorf("result 1 lost its path/text pairing: %+v", results[1])
	}
}

func TestRankLengthMismatch(t *testing.T) {
	_, err := Rank([]float32{1}, [][]float32{{1}}, []models.TextChunk{{}, {}})
	if err == nil {
		t.Error("expected error for embeddings/chunks length mismatch")
	}
}

func TestRankDimsMismatch(t *testing.T) {
	_, err := Rank([]float32{1, 0}, [][]float32{{1, 0, 0}}, []models.TextChunk{{}})
	if err == nil {
		t.Error("expected error for query/chunk dimension mismatch")
	}
}

func TestRankNaNScoresSortLast(t *testing.T) {
	nan := float32(math.NaN())
	query := []float32{1, 0}
	embeddings := [][]float32{
		{nan, nan},
		{1, 0},
		{nan, nan},
		{0, 1},
	}
	chunks := []models.TextChunk{
		{Text: "nan-1"}, {Text: "best"}, {Text: "nan-2"}, {Text: "ortho"},
	}

	// Must never panic, and NaN scores must land at the tail.
	results, err := Rank(query, embeddings, chunks)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if results[0].Text != "best" {
		t.Errorf("top result = %q, want best", results[0].Text)
	}
	if !math.IsNaN(results[2].Score) || !math.IsNaN(results[3].Score) {
		t.Errorf("NaN scores not sorted last: %+v", results)
	}
}

func TestTop(t *testing.T) {
	ranked := []models.ScoredChunk{
		{Score: 0.9}, {Score: 0.5}, {Score: 0.1},
	}

	tests := []struct {
		name string
		k    int
		want int
	}{
		{name: "limit below total", k: 2, want: 2},
		{name: "limit equals total", k: 3, want: 3},
		{name: "limit above total", k: 10, want: 3},
		{name: "limit zero", k: 0, want: 0},
		{name: "negative limit", k: -1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Top(ranked, tt.k)
			if len(got) != tt.want {
				t.Fatalf("Top(%d) returned %d results, want %d", tt.k, len(got), tt.want)
			}
			for i := range got {
				if got[i] != ranked[i] {
					t.Errorf("Top reordered results at %d", i)
				}
			}
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		once := Top(ranked, 2)
		twice := Top(once, 2)
		if len(twice) != len(once) {
			t.Fatalf("second Top changed length: %d vs %d", len(twice), len(once))
		}
		for i := range once {
			if once[i] != twice[i] {
				t.Errorf("second Top changed element %d", i)
			}
		}
	})
}

func TestScoreLess(t *testing.T) {
	nan := math.NaN()
	if scoreLess(0.5, nan) {
		t.Error("real score should not be less than NaN")
	}
	if !scoreLess(nan, 0.5) {
		t.Error("NaN should be less than a real score")
	}
	if scoreLess(nan, nan) {
		t.Error("NaN should compare equal to NaN")
	}
	if !scoreLess(-1, 1) {
		t.Error("-1 should be less than 1")
	}
}
