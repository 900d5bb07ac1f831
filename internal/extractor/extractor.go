package extractor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/do-me/sff/pkg/models"
	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog/log"
)

// DefaultChunkWords is how many whitespace-delimited words go into one chunk.
const DefaultChunkWords = 20

// FileSystemWalker defines the interface for walking directories
type FileSystemWalker interface {
	Walk(root string, options *godirwalk.Options) error
}

// FileReader defines the interface for reading files
type FileReader interface {
	ReadFile(filename string) ([]byte, error)
}

// DefaultFileSystemWalker implements FileSystemWalker using godirwalk
type DefaultFileSystemWalker struct{}

func (d *DefaultFileSystemWalker) Walk(root string, options *godirwalk.Options) error {
	return godirwalk.Walk(root, options)
}

// DefaultFileReader implements FileReader using os
type DefaultFileReader struct{}

func (d *DefaultFileReader) ReadFile(filename string) ([]byte, error) {
	return os.ReadFile(filename)
}

// Extractor discovers eligible text files under a root and splits their
// content into bounded-size word chunks. Traversal order is unspecified;
// downstream ranking must not depend on it.
type Extractor struct {
	Root       string
	Recursive  bool
	Extensions []string
	ChunkWords int
	Workers    int
	Walker     FileSystemWalker
	FileReader FileReader
}

// New creates an Extractor with default filesystem dependencies.
func New(root string, recursive bool, extensions []string, chunkWords int) *Extractor {
	if chunkWords <= 0 {
		chunkWords = DefaultChunkWords
	}
	return &Extractor{
		Root:       root,
		Recursive:  recursive,
		Extensions: extensions,
		ChunkWords: chunkWords,
		Walker:     &DefaultFileSystemWalker{},
		FileReader: &DefaultFileReader{},
	}
}

// NewWithDependencies creates an Extractor with custom dependencies for testing
func NewWithDependencies(root string, recursive bool, extensions []string, chunkWords int, walker FileSystemWalker, fileReader FileReader) *Extractor {
	ex := New(root, recursive, extensions, chunkWords)
	ex.Walker = walker
	ex.FileReader = fileReader
	return ex
}

// workItem represents a file whose content is ready to be chunked
type workItem struct {
	path    string
	content string
}

// Extract walks the root, reads matching files, and returns every chunk plus
// the count of distinct files that contributed at least one chunk. Per-file
// read failures are logged and skipped; only the walk itself can fail.
func (ex *Extractor) Extract(ctx context.Context) ([]models.TextChunk, int, error) {
	numWorkers := ex.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	accepted := make(map[string]struct{}, len(ex.Extensions))
	for _, e := range ex.Extensions {
		accepted[e] = struct{}{}
	}

	log.Debug().Int("workers", numWorkers).Str("root", ex.Root).Msg("starting file discovery")

	workChan := make(chan workItem, numWorkers*2) // Buffer to keep workers busy
	root := filepath.Clean(ex.Root)

	var (
		mu        sync.Mutex
		chunks    []models.TextChunk
		fileCount int
	)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workChan {
				fileChunks := chunkWords(item.path, item.content, ex.ChunkWords)
				if len(fileChunks) == 0 {
					continue
				}
				mu.Lock()
				chunks = append(chunks, fileChunks...)
				fileCount++
				mu.Unlock()
			}
		}()
	}

	walkErr := ex.Walker.Walk(ex.Root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			// de may be nil when driven by a mock walker in tests
			if de != nil && de.IsDir() {
				if !ex.Recursive && filepath.Clean(path) != root {
					return filepath.SkipDir
				}
				return nil
			}
			if de != nil && !de.IsRegular() {
				return nil
			}
			if _, ok := accepted[extension(path)]; !ok {
				return nil
			}

			b, err := ex.FileReader.ReadFile(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("failed to read file")
				return nil
			}

			select {
			case workChan <- workItem{path: path, content: string(b)}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	})

	close(workChan)
	wg.Wait()

	if walkErr != nil {
		return nil, 0, walkErr
	}
	return chunks, fileCount, nil
}

// chunkWords splits content on whitespace runs and groups consecutive words
// into chunks of exactly size words; the final chunk holds the remainder.
// Content with no words yields no chunks.
func chunkWords(path, content string, size int) []models.TextChunk {
	words := strings.Fields(content)
	if len(words) == 0 {
		return nil
	}
	out := make([]models.TextChunk, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		out = append(out, models.TextChunk{
			Path: path,
			Text: strings.Join(words[start:end], " "),
		})
	}
	return out
}

// extension returns the file extension without the leading dot. Matching is
// exact and case-sensitive.
func extension(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}
