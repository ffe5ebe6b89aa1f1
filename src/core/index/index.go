// Package index holds the per-strategy vector indices and the in-memory backend.
package index

import (
	"context"
	"sort"
	"sync"

	"ragcompare/src/core/rag"
)

// Rank orders hits by descending score, breaking ties by chunk order, and keeps the first k.
func Rank(hits []rag.Hit, k int) []rag.Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.Index < hits[j].Chunk.Index
	})
	if k >= 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// EmbedChunks embeds every chunk or fails as a whole.
func EmbedChunks(ctx context.Context, embedder rag.Embedder, name string, chunks []rag.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		v, err := embedder.Embed(ctx, c.Content)
		if err != nil {
			return nil, rag.Wrap(rag.ErrEmbedding, name, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}

// Release drops the storage of idx if it holds any. A nil idx is a no-op.
func Release(ctx context.Context, idx rag.Index) error {
	if r, ok := idx.(rag.Releaser); ok {
		return r.Release(ctx)
	}
	return nil
}

// Set holds at most one index per strategy. Indices are replaced whole, never mutated.
type Set struct {
	mu      sync.RWMutex
	indices map[string]rag.Index
	errs    map[string]error
}

func NewSet() *Set {
	return &Set{
		indices: make(map[string]rag.Index),
		errs:    make(map[string]error),
	}
}

// Put installs idx for name, clears any previous build failure and returns the index it replaced.
func (s *Set) Put(name string, idx rag.Index) rag.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.indices[name]
	s.indices[name] = idx
	delete(s.errs, name)
	return prev
}

// Fail records a failed build for name and returns the index it dropped.
func (s *Set) Fail(name string, err error) rag.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.indices[name]
	delete(s.indices, name)
	s.errs[name] = err
	return prev
}

// Drain empties the set and returns the indices it held.
func (s *Set) Drain() []rag.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]rag.Index, 0, len(s.indices))
	for _, idx := range s.indices {
		out = append(out, idx)
	}
	s.indices = make(map[string]rag.Index)
	s.errs = make(map[string]error)
	return out
}

// Get returns the index for name, or the error of its last failed build.
func (s *Set) Get(name string) (rag.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx, ok := s.indices[name]; ok {
		return idx, nil
	}
	if err, ok := s.errs[name]; ok {
		return nil, err
	}
	return nil, nil
}

// Status reports the chunk count of every built index and the error of every failed one.
func (s *Set) Status() (sizes map[string]int, failures map[string]error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sizes = make(map[string]int, len(s.indices))
	for name, idx := range s.indices {
		sizes[name] = idx.Len()
	}
	failures = make(map[string]error, len(s.errs))
	for name, err := range s.errs {
		failures[name] = err
	}
	return sizes, failures
}
