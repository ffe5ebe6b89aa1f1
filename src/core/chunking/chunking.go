// Package chunking holds the fixed table of document chunking strategies.
package chunking

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"ragcompare/src/core/rag"
)

const (
	FixedSize        = "fixed_size"
	SentenceSplitter = "sentence_splitter"
	Recursive        = "recursive"
)

// SampleLength is the preview length of the sample chunk in an analysis.
const SampleLength = 200

// Strategy is a text-splitting configuration. Lengths are counted in runes.
type Strategy struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Description  string   `json:"description"`
	ChunkSize    int      `json:"chunk_size"`
	ChunkOverlap int      `json:"chunk_overlap"`
	Separators   []string `json:"separators"`
}

var strategies = []Strategy{
	{
		ID:           FixedSize,
		Label:        "Fixed Size",
		Description:  "Splits text into chunks of fixed character length",
		ChunkSize:    500,
		ChunkOverlap: 50,
		Separators:   []string{"\n\n", "\n", " ", ""},
	},
	{
		ID:           SentenceSplitter,
		Label:        "Sentence Splitter",
		Description:  "Splits text at sentence boundaries for natural breaks",
		ChunkSize:    1000,
		ChunkOverlap: 100,
		Separators:   []string{". "},
	},
	{
		ID:           Recursive,
		Label:        "Recursive",
		Description:  "Hierarchical splitting with multiple separators",
		ChunkSize:    1000,
		ChunkOverlap: 200,
		Separators:   []string{"\n\n", "\n", ". ", " ", ""},
	},
}

// All returns the strategies in table order.
func All() []Strategy {
	out := make([]Strategy, len(strategies))
	copy(out, strategies)
	return out
}

func Lookup(id string) (Strategy, bool) {
	for _, s := range strategies {
		if s.ID == id {
			return s, true
		}
	}
	return Strategy{}, false
}

// IDs returns the strategy identifiers in table order.
func IDs() []string {
	ids := make([]string, len(strategies))
	for i, s := range strategies {
		ids[i] = s.ID
	}
	return ids
}

// Split partitions text into chunks in document order. Blank text yields no chunks.
func (s Strategy) Split(source, text string) ([]rag.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.ChunkSize),
		textsplitter.WithChunkOverlap(s.ChunkOverlap),
		textsplitter.WithSeparators(s.Separators),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)
	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text with %s: %w", s.ID, err)
	}

	chunks := make([]rag.Chunk, 0, len(parts))
	from := 0
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		start := locate(text, part, from)
		if start >= 0 {
			from = start + 1
		}
		idx := len(chunks)
		chunks = append(chunks, rag.Chunk{
			ID:       fmt.Sprintf("%s-%04d", s.ID, idx),
			Strategy: s.ID,
			Index:    idx,
			Start:    start,
			Source:   source,
			Content:  part,
		})
	}
	return chunks, nil
}

// locate finds part in text at or after from. Overlapping chunks start inside their predecessor,
// so the search resumes just past the previous start rather than its end.
func locate(text, part string, from int) int {
	if from > len(text) {
		from = len(text)
	}
	if i := strings.Index(text[from:], part); i >= 0 {
		return from + i
	}
	return strings.Index(text, part)
}

// Analyze summarises a chunk sequence.
func Analyze(chunks []rag.Chunk) rag.ChunkingAnalysis {
	if len(chunks) == 0 {
		return rag.ChunkingAnalysis{}
	}

	a := rag.ChunkingAnalysis{
		TotalChunks: len(chunks),
		SampleChunk: rag.Preview(chunks[0].Content, SampleLength),
	}
	total := 0
	for i, c := range chunks {
		n := utf8.RuneCountInString(c.Content)
		total += n
		if i == 0 || n < a.MinChunkLength {
			a.MinChunkLength = n
		}
		if n > a.MaxChunkLength {
			a.MaxChunkLength = n
		}
	}
	a.AvgChunkLength = float64(total) / float64(len(chunks))
	return a
}
