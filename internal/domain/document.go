package domain

// DocumentChunk is one unit of the static knowledge corpus. The corpus is
// loaded once at index build time (one chunk per .txt file) and never
// mutated at runtime.
type DocumentChunk struct {
	Text       string `json:"text"`
	SourceFile string `json:"source_file"`
}

// ScoredChunk is returned by semantic search, including similarity score.
type ScoredChunk struct {
	DocumentChunk
	Similarity float64 `json:"similarity"`
}
