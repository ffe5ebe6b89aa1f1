// Package elasticsearch keeps each strategy's chunks in a dense_vector index and searches it with kNN.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"ragcompare/src/core/index"
	"ragcompare/src/core/rag"
	"ragcompare/src/log"
)

const indexPrefix = "ragcompare-"

// NewClient connects to the given cluster nodes. transport may be nil.
func NewClient(addresses []string, transport http.RoundTripper) (*es.Client, error) {
	client, err := es.NewClient(es.Config{
		Addresses: addresses,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return client, nil
}

// IndexName maps a strategy id to the prefix of its index names.
func IndexName(strategy string) string {
	return indexPrefix + strings.ToLower(strategy)
}

// VersionedIndexName is the index one build of strategy writes to.
func VersionedIndexName(strategy, version string) string {
	return IndexName(strategy) + "-" + strings.ToLower(version)
}

type chunkDoc struct {
	Content    string    `json:"content"`
	Strategy   string    `json:"strategy"`
	ChunkIndex int       `json:"chunk_index"`
	StartIndex int       `json:"start_index"`
	Source     string    `json:"source"`
	Embedding  []float32 `json:"embedding"`
}

func mapping(dims int) map[string]interface{} {
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"content":     map[string]string{"type": "text"},
				"strategy":    map[string]string{"type": "keyword"},
				"chunk_index": map[string]string{"type": "integer"},
				"start_index": map[string]string{"type": "integer"},
				"source":      map[string]string{"type": "keyword"},
				"embedding": map[string]interface{}{
					"type":       "dense_vector",
					"dims":       dims,
					"index":      true,
					"similarity": "cosine",
				},
			},
		},
	}
}

type Backend struct {
	client   *es.Client
	embedder rag.Embedder
}

func NewBackend(client *es.Client, embedder rag.Embedder) *Backend {
	return &Backend{client: client, embedder: embedder}
}

// Build loads the chunks into a new index of its own. Indices of earlier builds are left alone
// until the returned index replaces them and they are released. A failed build deletes its index.
func (b *Backend) Build(ctx context.Context, name string, chunks []rag.Chunk) (rag.Index, error) {
	vectors, err := index.EmbedChunks(ctx, b.embedder, name, chunks)
	if err != nil {
		return nil, err
	}

	byIndex := make(map[int]rag.Chunk, len(chunks))
	for _, c := range chunks {
		byIndex[c.Index] = c
	}
	idx := &knnIndex{
		name:      name,
		indexName: VersionedIndexName(name, index.NewVersion()),
		backend:   b,
		chunks:    byIndex,
	}
	if len(chunks) == 0 {
		return idx, nil
	}

	if err := b.createIndex(ctx, idx.indexName, len(vectors[0])); err != nil {
		return nil, rag.Wrap(rag.ErrIndex, name, err)
	}
	if err := b.bulkLoad(ctx, idx.indexName, chunks, vectors); err != nil {
		if derr := b.deleteIndex(context.WithoutCancel(ctx), idx.indexName); derr != nil {
			log.Error(derr, "failed to drop half-built index", "index", idx.indexName)
		}
		return nil, rag.Wrap(rag.ErrIndex, name, err)
	}

	log.Debug("elasticsearch index built", "index", idx.indexName, "chunks", len(chunks))
	return idx, nil
}

func (b *Backend) deleteIndex(ctx context.Context, indexName string) error {
	res, err := b.client.Indices.Delete(
		[]string{indexName},
		b.client.Indices.Delete.WithContext(ctx),
		b.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("failed to delete index %s: %w", indexName, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete index", res)
	}
	return nil
}

func (b *Backend) createIndex(ctx context.Context, indexName string, dims int) error {
	body, err := json.Marshal(mapping(dims))
	if err != nil {
		return fmt.Errorf("failed to encode mapping: %w", err)
	}
	res, err := b.client.Indices.Create(
		indexName,
		b.client.Indices.Create.WithBody(bytes.NewReader(body)),
		b.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", indexName, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res)
	}
	return nil
}

func (b *Backend) bulkLoad(ctx context.Context, indexName string, chunks []rag.Chunk, vectors [][]float32) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, c := range chunks {
		meta := map[string]map[string]string{"index": {"_id": c.ID}}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("failed to encode bulk action: %w", err)
		}
		doc := chunkDoc{
			Content:    c.Content,
			Strategy:   c.Strategy,
			ChunkIndex: c.Index,
			StartIndex: c.Start,
			Source:     c.Source,
			Embedding:  vectors[i],
		}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode chunk %s: %w", c.ID, err)
		}
	}

	res, err := b.client.Bulk(
		&buf,
		b.client.Bulk.WithIndex(indexName),
		b.client.Bulk.WithRefresh("true"),
		b.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk load %s: %w", indexName, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("bulk load", res)
	}

	var parsed struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  *struct {
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if parsed.Errors {
		for _, item := range parsed.Items {
			for _, result := range item {
				if result.Error != nil {
					return fmt.Errorf("bulk load rejected a chunk: %s", result.Error.Reason)
				}
			}
		}
		return fmt.Errorf("bulk load reported errors")
	}
	return nil
}

type knnIndex struct {
	name      string
	indexName string
	backend   *Backend
	chunks    map[int]rag.Chunk
	guard     index.Guard
}

func (k *knnIndex) Len() int {
	return len(k.chunks)
}

// Release deletes the index once searches in flight are done. Later searches fail with ErrReleased.
func (k *knnIndex) Release(ctx context.Context) error {
	if !k.guard.Retire() || len(k.chunks) == 0 {
		return nil
	}
	if err := k.backend.deleteIndex(ctx, k.indexName); err != nil {
		return rag.Wrap(rag.ErrIndex, k.name, err)
	}
	log.Debug("elasticsearch index released", "index", k.indexName)
	return nil
}

func (k *knnIndex) Search(ctx context.Context, query string, n int) ([]rag.Hit, error) {
	if err := k.guard.Enter(); err != nil {
		return nil, rag.Wrap(rag.ErrIndex, k.name, err)
	}
	defer k.guard.Exit()

	if n <= 0 || len(k.chunks) == 0 {
		return nil, nil
	}
	qv, err := k.backend.embedder.Embed(ctx, query)
	if err != nil {
		return nil, rag.Wrap(rag.ErrEmbedding, k.name, fmt.Errorf("failed to embed query: %w", err))
	}

	total := len(k.chunks)
	body, err := json.Marshal(map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "embedding",
			"query_vector":   qv,
			"k":              total,
			"num_candidates": total,
		},
		"size":    total,
		"_source": []string{"chunk_index"},
	})
	if err != nil {
		return nil, rag.Wrap(rag.ErrIndex, k.name, fmt.Errorf("failed to encode query: %w", err))
	}

	client := k.backend.client
	res, err := client.Search(
		client.Search.WithIndex(k.indexName),
		client.Search.WithBody(bytes.NewReader(body)),
		client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, rag.Wrap(rag.ErrIndex, k.name, fmt.Errorf("failed to search %s: %w", k.indexName, err))
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, rag.Wrap(rag.ErrIndex, k.name, responseError("search", res))
	}

	hits, err := ParseSearchHits(res.Body, k.chunks)
	if err != nil {
		return nil, rag.Wrap(rag.ErrIndex, k.name, err)
	}
	return index.Rank(hits, n), nil
}

// ParseSearchHits decodes a search response and resolves each hit to its chunk by chunk_index.
func ParseSearchHits(r io.Reader, chunks map[int]rag.Chunk) ([]rag.Hit, error) {
	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  float64 `json:"_score"`
				Source struct {
					ChunkIndex *int `json:"chunk_index"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]rag.Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		if h.Source.ChunkIndex == nil {
			continue
		}
		c, ok := chunks[*h.Source.ChunkIndex]
		if !ok {
			continue
		}
		hits = append(hits, rag.Hit{Chunk: c, Score: h.Score})
	}
	return hits, nil
}

func responseError(op string, res *esapi.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
	return fmt.Errorf("elasticsearch %s failed with %s: %s", op, res.Status(), strings.TrimSpace(string(msg)))
}
