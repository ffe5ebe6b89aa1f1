package weaviate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/weaviate/weaviate/entities/models"

	"ragcompare/src/core/index"
	"ragcompare/src/core/rag"
	"ragcompare/src/log"
)

const classPrefix = "RagChunk"

var chunkFields = []string{"content", "strategy", "chunk_index", "start_index", "source"}

func chunkProperties() []*models.Property {
	return []*models.Property{
		{Name: "content", DataType: []string{"text"}},
		{Name: "strategy", DataType: []string{"text"}},
		{Name: "chunk_index", DataType: []string{"int"}},
		{Name: "start_index", DataType: []string{"int"}},
		{Name: "source", DataType: []string{"text"}},
	}
}

// ClassName maps a strategy id such as "fixed_size" to a valid class name, "RagChunkFixedSize".
func ClassName(strategy string) string {
	var b strings.Builder
	b.WriteString(classPrefix)
	upper := true
	for _, r := range strategy {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Backend stores each strategy's chunks in its own Weaviate class with externally computed vectors.
type Backend struct {
	sdk      *SDK
	embedder rag.Embedder
}

func NewBackend(sdk *SDK, embedder rag.Embedder) *Backend {
	return &Backend{sdk: sdk, embedder: embedder}
}

// VersionedClassName is the class one build of strategy writes to, e.g. "RagChunkFixedSizeV1a2b3c".
func VersionedClassName(strategy, version string) string {
	return ClassName(strategy) + "V" + version
}

// Build loads the chunks into a new class of its own. Classes of earlier builds stay untouched
// until the returned index replaces them and they are released. A failed build drops its class.
func (b *Backend) Build(ctx context.Context, name string, chunks []rag.Chunk) (rag.Index, error) {
	vectors, err := index.EmbedChunks(ctx, b.embedder, name, chunks)
	if err != nil {
		return nil, err
	}

	className := VersionedClassName(name, index.NewVersion())
	if err := b.sdk.CreateSchema(ctx, className, chunkProperties(), "none"); err != nil {
		return nil, rag.Wrap(rag.ErrIndex, name, err)
	}

	objects := make([]VectorObject, len(chunks))
	byIndex := make(map[int]rag.Chunk, len(chunks))
	for i, c := range chunks {
		byIndex[c.Index] = c
		objects[i] = VectorObject{
			Vector: vectors[i],
			Properties: map[string]interface{}{
				"content":     c.Content,
				"strategy":    c.Strategy,
				"chunk_index": c.Index,
				"start_index": c.Start,
				"source":      c.Source,
			},
		}
	}
	if err := b.sdk.BatchAddVectors(ctx, className, objects); err != nil {
		if derr := b.sdk.DeleteSchema(context.WithoutCancel(ctx), className); derr != nil {
			log.Error(derr, "failed to drop half-built class", "class", className)
		}
		return nil, rag.Wrap(rag.ErrIndex, name, err)
	}

	log.Debug("weaviate index built", "class", className, "chunks", len(chunks))
	return &remoteIndex{
		name:      name,
		className: className,
		sdk:       b.sdk,
		embedder:  b.embedder,
		chunks:    byIndex,
	}, nil
}

type remoteIndex struct {
	name      string
	className string
	sdk       *SDK
	embedder  rag.Embedder
	chunks    map[int]rag.Chunk
	guard     index.Guard
}

func (r *remoteIndex) Len() int {
	return len(r.chunks)
}

// Release drops the class once searches in flight are done.
func (r *remoteIndex) Release(ctx context.Context) error {
	if !r.guard.Retire() {
		return nil
	}
	if err := r.sdk.DeleteSchema(ctx, r.className); err != nil {
		return rag.Wrap(rag.ErrIndex, r.name, err)
	}
	log.Debug("weaviate class released", "class", r.className)
	return nil
}

func (r *remoteIndex) Search(ctx context.Context, query string, k int) ([]rag.Hit, error) {
	if err := r.guard.Enter(); err != nil {
		return nil, rag.Wrap(rag.ErrIndex, r.name, err)
	}
	defer r.guard.Exit()

	if k <= 0 || len(r.chunks) == 0 {
		return nil, nil
	}
	qv, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, rag.Wrap(rag.ErrEmbedding, r.name, fmt.Errorf("failed to embed query: %w", err))
	}

	results, err := r.sdk.QueryVectors(ctx, r.className, qv, QueryConfig{
		Fields: chunkFields,
		Limit:  len(r.chunks),
	})
	if err != nil {
		return nil, rag.Wrap(rag.ErrIndex, r.name, err)
	}
	return index.Rank(ResultsToHits(results, r.chunks), k), nil
}

// ResultsToHits resolves query results to the chunks they were built from. Score is 1 - distance.
// Results that do not map to a known chunk are skipped.
func ResultsToHits(results []QueryResult, chunks map[int]rag.Chunk) []rag.Hit {
	hits := make([]rag.Hit, 0, len(results))
	for _, res := range results {
		idx, ok := intProperty(res.Properties["chunk_index"])
		if !ok {
			continue
		}
		c, ok := chunks[idx]
		if !ok {
			continue
		}
		hits = append(hits, rag.Hit{Chunk: c, Score: 1 - res.Distance})
	}
	return hits
}

func intProperty(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}
