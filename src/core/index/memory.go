package index

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"ragcompare/src/core/rag"
)

// MemoryBackend builds in-process chromem indices. Every build owns a private DB,
// so a failed build shares nothing with the indices of other strategies.
type MemoryBackend struct {
	embedder rag.Embedder
}

func NewMemoryBackend(embedder rag.Embedder) *MemoryBackend {
	return &MemoryBackend{embedder: embedder}
}

func (b *MemoryBackend) Build(ctx context.Context, name string, chunks []rag.Chunk) (rag.Index, error) {
	vectors, err := EmbedChunks(ctx, b.embedder, name, chunks)
	if err != nil {
		return nil, err
	}

	db := chromem.NewDB()
	coll, err := db.CreateCollection(name, map[string]string{"strategy": name}, chromem.EmbeddingFunc(b.embedder.Embed))
	if err != nil {
		return nil, rag.Wrap(rag.ErrIndex, name, fmt.Errorf("failed to create collection: %w", err))
	}

	byID := make(map[string]rag.Chunk, len(chunks))
	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		byID[c.ID] = c
		docs[i] = chromem.Document{
			ID:        c.ID,
			Content:   c.Content,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"strategy":    c.Strategy,
				"chunk_index": strconv.Itoa(c.Index),
				"start_index": strconv.Itoa(c.Start),
				"source":      c.Source,
			},
		}
	}
	if len(docs) > 0 {
		if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, rag.Wrap(rag.ErrIndex, name, fmt.Errorf("failed to add documents: %w", err))
		}
	}

	return &memoryIndex{
		name:     name,
		coll:     coll,
		embedder: b.embedder,
		chunks:   byID,
	}, nil
}

type memoryIndex struct {
	name     string
	coll     *chromem.Collection
	embedder rag.Embedder
	chunks   map[string]rag.Chunk
}

func (m *memoryIndex) Len() int {
	return m.coll.Count()
}

// Search scores every chunk so that ties at the k-th position are broken by chunk order.
func (m *memoryIndex) Search(ctx context.Context, query string, k int) ([]rag.Hit, error) {
	n := m.coll.Count()
	if k <= 0 || n == 0 {
		return nil, nil
	}

	qv, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, rag.Wrap(rag.ErrEmbedding, m.name, fmt.Errorf("failed to embed query: %w", err))
	}

	results, err := m.coll.QueryEmbedding(ctx, qv, n, nil, nil)
	if err != nil {
		return nil, rag.Wrap(rag.ErrIndex, m.name, fmt.Errorf("failed to query collection: %w", err))
	}

	hits := make([]rag.Hit, 0, len(results))
	for _, r := range results {
		c, ok := m.chunks[r.ID]
		if !ok {
			continue
		}
		hits = append(hits, rag.Hit{Chunk: c, Score: float64(r.Similarity)})
	}
	return Rank(hits, k), nil
}
