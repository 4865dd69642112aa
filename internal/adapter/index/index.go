// Package index implements the persisted nearest-neighbor index over the
// knowledge corpus. The corpus is a fixed directory of .txt files, loaded as
// one chunk per file, embedded once and queried many times. After a build the
// index is immutable, so reads need no locking.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/gryork-engineers/grybot/internal/domain"
	"github.com/gryork-engineers/grybot/internal/port"
)

// DefaultTopK is the number of chunks returned when the caller does not ask
// for a specific k.
const DefaultTopK = 4

// TaggedEmbedder embeds batches and reports which provider produced the
// vectors, so the index can pin its embedding space.
type TaggedEmbedder interface {
	// Identities lists the embedding spaces the embedder can produce.
	Identities() []string

	// EmbedBatchTagged embeds texts and returns the identity of the provider
	// that served the call.
	EmbedBatchTagged(ctx context.Context, texts []string) ([][]float32, string, error)
}

// Manifest records how the persisted index was built. An index whose embedder
// identity is unknown to the current provider pair is rebuilt rather than
// queried, since cross-space similarity scores are silently meaningless.
type Manifest struct {
	Embedder  string    `json:"embedder"`
	Dimension int       `json:"dimension"`
	BuiltAt   time.Time `json:"built_at"`
}

type entry struct {
	Text       string    `json:"text"`
	SourceFile string    `json:"source_file"`
	Vector     []float32 `json:"vector"`
}

type indexFile struct {
	Manifest Manifest `json:"manifest"`
	Entries  []entry  `json:"entries"`
}

// Index holds the embedded corpus in memory. It is built or loaded once at
// startup and is immutable afterwards, so it is safe for concurrent reads.
type Index struct {
	manifest Manifest
	entries  []entry
}

// Manifest returns the build metadata of the loaded index.
func (ix *Index) Manifest() Manifest {
	return ix.manifest
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// BuildOrLoad loads the persisted index at indexPath if present and valid for
// the given embedder pair; otherwise it enumerates all .txt files in
// corpusDir (one chunk per file), embeds them and persists the result.
// Corpus changes after a build are invisible until the persisted index is
// deleted. A missing or empty corpus directory yields an empty index, not an
// error.
func BuildOrLoad(ctx context.Context, corpusDir, indexPath string, embedder TaggedEmbedder) (*Index, error) {
	if ix, err := load(indexPath, embedder.Identities()); err == nil {
		slog.Info("loaded persisted index", "path", indexPath, "chunks", ix.Len(), "embedder", ix.manifest.Embedder)
		return ix, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("persisted index unusable, rebuilding", "path", indexPath, "error", err)
	}

	return build(ctx, corpusDir, indexPath, embedder)
}

var errForeignEmbedder = errors.New("index was built by an unknown embedder")

func load(indexPath string, identities []string) (*Index, error) {
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, err
	}

	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}

	if len(f.Entries) > 0 && !slices.Contains(identities, f.Manifest.Embedder) {
		return nil, fmt.Errorf("%w: %q", errForeignEmbedder, f.Manifest.Embedder)
	}

	return &Index{manifest: f.Manifest, entries: f.Entries}, nil
}

func build(ctx context.Context, corpusDir, indexPath string, embedder TaggedEmbedder) (*Index, error) {
	chunks, err := loadCorpus(corpusDir)
	if err != nil {
		return nil, err
	}

	ix := &Index{manifest: Manifest{BuiltAt: time.Now().UTC()}}

	if len(chunks) == 0 {
		slog.Warn("knowledge corpus is empty, retrieval will return no context", "dir", corpusDir)
	} else {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}

		vectors, identity, err := embedder.EmbedBatchTagged(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed corpus: %w", err)
		}

		ix.manifest.Embedder = identity
		ix.manifest.Dimension = len(vectors[0])
		ix.entries = make([]entry, len(chunks))
		for i, c := range chunks {
			ix.entries[i] = entry{Text: c.Text, SourceFile: c.SourceFile, Vector: vectors[i]}
		}
	}

	if err := persist(indexPath, ix); err != nil {
		return nil, err
	}
	slog.Info("built index", "dir", corpusDir, "chunks", ix.Len(), "embedder", ix.manifest.Embedder, "path", indexPath)
	return ix, nil
}

// loadCorpus reads every .txt file in dir as a single chunk. A missing
// directory is treated the same as an empty one.
func loadCorpus(dir string) ([]domain.DocumentChunk, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read corpus dir: %w", err)
	}

	var chunks []domain.DocumentChunk
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".txt") {
			continue
		}
		text, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return nil, fmt.Errorf("read corpus file %s: %w", f.Name(), err)
		}
		chunks = append(chunks, domain.DocumentChunk{Text: string(text), SourceFile: f.Name()})
	}
	return chunks, nil
}

// persist writes the index atomically (temp file + rename).
func persist(indexPath string, ix *Index) error {
	if dir := filepath.Dir(indexPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create index directory: %w", err)
		}
	}

	data, err := json.Marshal(indexFile{Manifest: ix.manifest, Entries: ix.entries})
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	tmp := indexPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return os.Rename(tmp, indexPath)
}

// Search returns the k chunks nearest to the query vector by cosine
// similarity, most similar first. An empty index returns no chunks and no
// error; a query vector from a different embedding space returns
// port.ErrDimensionMismatch.
func (ix *Index) Search(queryVector []float32, k int) ([]domain.ScoredChunk, error) {
	if len(ix.entries) == 0 {
		return nil, nil
	}
	if len(queryVector) != ix.manifest.Dimension {
		return nil, fmt.Errorf("%w: query %d, index %d", port.ErrDimensionMismatch, len(queryVector), ix.manifest.Dimension)
	}
	if k <= 0 {
		k = DefaultTopK
	}

	scored := make([]domain.ScoredChunk, len(ix.entries))
	for i, e := range ix.entries {
		scored[i] = domain.ScoredChunk{
			DocumentChunk: domain.DocumentChunk{Text: e.Text, SourceFile: e.SourceFile},
			Similarity:    cosineSimilarity(queryVector, e.Vector),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func cosineSimilarity(a, b []float32) float64 {
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
