package rag

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// Chunk is a contiguous span of the document produced by one chunking strategy.
type Chunk struct {
	ID       string `json:"id"`
	Strategy string `json:"strategy"`
	Index    int    `json:"index"` // position of the chunk in document order
	Start    int    `json:"start"` // byte offset in the document, -1 when unknown
	Source   string `json:"source"`
	Content  string `json:"content"`
}

// Hit is a chunk returned by an index search. Higher scores are more similar.
type Hit struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// ContextMode selects what is substituted into a prompt's {context} placeholder.
type ContextMode string

const (
	// ContextDocument feeds the whole document, keeping prompts comparable across chunking strategies.
	ContextDocument ContextMode = "document"
	// ContextRetrieved feeds only the retrieved chunks.
	ContextRetrieved ContextMode = "retrieved"
)

// ParseContextMode returns the mode named by s. Empty means ContextDocument.
func ParseContextMode(s string) (ContextMode, error) {
	switch ContextMode(s) {
	case "", ContextDocument:
		return ContextDocument, nil
	case ContextRetrieved:
		return ContextRetrieved, nil
	default:
		return "", &Error{Kind: ErrConfiguration, Err: fmt.Errorf("unknown context mode %q", s)}
	}
}

type QueryRequest struct {
	Question          string `json:"question"`
	ChunkingStrategy  string `json:"method"`
	PromptingStrategy string `json:"prompt_method,omitempty"`
	CustomPrompt      string `json:"custom_prompt,omitempty"`
}

// SourceChunk is a retrieved chunk as presented to callers.
type SourceChunk struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

type QueryResult struct {
	Answer       string        `json:"answer"`
	Sources      []SourceChunk `json:"source_documents"`
	Method       string        `json:"method"`
	PromptMethod string        `json:"prompt_method"`
	ContextMode  ContextMode   `json:"context_mode"`
}

// ChunkingAnalysis summarises the chunks one strategy produces for the current document.
type ChunkingAnalysis struct {
	TotalChunks    int     `json:"total_chunks"`
	AvgChunkLength float64 `json:"avg_chunk_length"`
	MinChunkLength int     `json:"min_chunk_length"`
	MaxChunkLength int     `json:"max_chunk_length"`
	SampleChunk    string  `json:"sample_chunk"`
}

// Embedder maps text to a fixed-length vector. Implementations must be deterministic.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a completion for a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Index is a write-once, read-many vector index over one strategy's chunks.
// Search must be safe for concurrent use.
type Index interface {
	Search(ctx context.Context, query string, k int) ([]Hit, error)
	Len() int
}

// Releaser is implemented by indices that hold external storage. Release is called once the
// index has been replaced and drops that storage after in-flight searches finish.
type Releaser interface {
	Release(ctx context.Context) error
}

// IndexBackend builds an Index from scratch. A failed build leaves nothing behind.
type IndexBackend interface {
	Build(ctx context.Context, name string, chunks []Chunk) (Index, error)
}

// Preview truncates s to n runes, appending "..." when anything was cut.
func Preview(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
