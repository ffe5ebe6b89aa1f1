package weaviate_test

import (
	"encoding/json"
	"math"
	"testing"

	"ragcompare/src/core/rag"
	"ragcompare/src/storage/weaviate"
)

func TestClassName(t *testing.T) {
	tests := []struct {
		strategy string
		want     string
	}{
		{"fixed_size", "RagChunkFixedSize"},
		{"sentence_splitter", "RagChunkSentenceSplitter"},
		{"recursive", "RagChunkRecursive"},
		{"v2-chunks", "RagChunkV2Chunks"},
	}
	for _, tt := range tests {
		if got := weaviate.ClassName(tt.strategy); got != tt.want {
			t.Errorf("ClassName(%q) = %q, want %q", tt.strategy, got, tt.want)
		}
	}
}

func TestVersionedClassName(t *testing.T) {
	a := weaviate.VersionedClassName("fixed_size", "0a1b2c")
	if a != "RagChunkFixedSizeV0a1b2c" {
		t.Errorf("VersionedClassName() = %q, want %q", a, "RagChunkFixedSizeV0a1b2c")
	}
	if b := weaviate.VersionedClassName("fixed_size", "ffffff"); a == b {
		t.Errorf("builds with different versions share class %q", a)
	}
}

const getResponse = `{
  "RagChunkFixedSize": [
    {"content": "Qubits...", "chunk_index": 2, "_additional": {"id": "a", "distance": 0.1}},
    {"content": "RSA...", "chunk_index": 0, "_additional": {"id": "b", "distance": 0.4}},
    {"content": "stale", "chunk_index": 9, "_additional": {"id": "c", "distance": 0.2}}
  ]
}`

func TestParseQueryResultsToHits(t *testing.T) {
	var get map[string]interface{}
	if err := json.Unmarshal([]byte(getResponse), &get); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	results, err := weaviate.ParseQueryResults(get, "RagChunkFixedSize")
	if err != nil {
		t.Fatalf("ParseQueryResults() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("ParseQueryResults() returned %d results, want 3", len(results))
	}
	if results[0].ID != "a" || results[0].Distance != 0.1 {
		t.Errorf("results[0] = %+v", results[0])
	}
	if _, ok := results[0].Properties["_additional"]; ok {
		t.Errorf("results[0].Properties kept _additional")
	}

	chunks := map[int]rag.Chunk{
		0: {Index: 0, Content: "RSA relies on factoring."},
		2: {Index: 2, Content: "Qubits hold superpositions."},
	}
	hits := weaviate.ResultsToHits(results, chunks)
	if len(hits) != 2 {
		t.Fatalf("ResultsToHits() returned %d hits, want 2", len(hits))
	}
	if hits[0].Chunk.Index != 2 || math.Abs(hits[0].Score-0.9) > 1e-9 {
		t.Errorf("hits[0] = chunk %d score %v, want chunk 2 score 0.9", hits[0].Chunk.Index, hits[0].Score)
	}
}

func TestParseQueryResultsErrors(t *testing.T) {
	if res, err := weaviate.ParseQueryResults(nil, "RagChunkFixedSize"); err != nil || len(res) != 0 {
		t.Errorf("ParseQueryResults(nil) = %v, %v; want empty", res, err)
	}

	bad := map[string]interface{}{"RagChunkFixedSize": "oops"}
	if _, err := weaviate.ParseQueryResults(bad, "RagChunkFixedSize"); err == nil {
		t.Errorf("ParseQueryResults() of a string returned no error")
	}

	noDistance := map[string]interface{}{
		"RagChunkFixedSize": []interface{}{map[string]interface{}{"_additional": map[string]interface{}{"id": "x"}}},
	}
	if _, err := weaviate.ParseQueryResults(noDistance, "RagChunkFixedSize"); err == nil {
		t.Errorf("ParseQueryResults() without distance returned no error")
	}
}
