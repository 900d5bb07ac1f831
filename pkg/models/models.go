package models

// TextChunk is a bounded span of whitespace-delimited words extracted from
// one file. Many chunks may reference the same path. Immutable after
// extraction.
type TextChunk struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// ScoredChunk pairs a chunk with its cosine similarity against the query.
type ScoredChunk struct {
	Score float64 `json:"score"`
	Path  string  `json:"path"`
	Text  string  `json:"chunk"`
}
