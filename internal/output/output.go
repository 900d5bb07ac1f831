// Package output renders ranked results for humans (table) or machines
// (JSON). Presentation only; scores and ordering arrive final.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/do-me/sff/pkg/models"
)

// MaxExcerptLen caps the displayed chunk text, in runes.
const MaxExcerptLen = 100

// WriteTable renders results as a bordered table. An empty result set prints
// "No matches found." rather than a header-only table.
func WriteTable(w io.Writer, results []models.ScoredChunk) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No matches found.")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle()).
		Headers("Score", "Matching Text Chunk", "File Path")

	for _, r := range results {
		t.Row(
			fmt.Sprintf("%.2f", r.Score),
			Excerpt(r.Text, MaxExcerptLen),
			FileURL(r.Path),
		)
	}

	_, err := fmt.Fprintln(w, t)
	return err
}

// WriteJSON renders results as a JSON array of {score, chunk, path} records.
func WriteJSON(w io.Writer, results []models.ScoredChunk) error {
	out := make([]models.ScoredChunk, 0, len(results))
	for _, r := range results {
		r.Text = Excerpt(r.Text, MaxExcerptLen)
		r.Path = FileURL(r.Path)
		out = append(out, r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Excerpt truncates s to max runes, appending "..." when shortened.
func Excerpt(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// FileURL renders path as a clickable file:// URL: absolute where possible,
// with controls, space, `"`, `<`, `>`, `?`, backtick, braces and `#`
// percent-encoded.
func FileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + percentEncode(filepath.ToSlash(abs))
}

const upperhex = "0123456789ABCDEF"

func percentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0xf])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func shouldEscape(c byte) bool {
	if c < 0x20 || c == 0x7f {
		return true
	}
	switch c {
	case ' ', '"', '<', '>', '?', '`', '{', '}', '#':
		return true
	}
	return false
}
