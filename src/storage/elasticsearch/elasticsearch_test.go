package elasticsearch_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"ragcompare/src/core/index"
	"ragcompare/src/core/rag"
	"ragcompare/src/storage/elasticsearch"
)

// fakeCluster is just enough of the REST API for index create, bulk, kNN search and delete.
type fakeCluster struct {
	mu       sync.Mutex
	indices  map[string][]map[string]interface{}
	failBulk bool
}

func newFakeCluster() *fakeCluster {
	return &fakeCluster{indices: make(map[string][]map[string]interface{})}
}

func (f *fakeCluster) docs(name string) ([]map[string]interface{}, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.indices[name]
	return d, ok
}

// names lists the indices whose name starts with prefix.
func (f *fakeCluster) names(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for name := range f.indices {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	name := parts[0]

	switch {
	case r.Method == http.MethodDelete && len(parts) == 1:
		delete(f.indices, name)
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	case r.Method == http.MethodPut && len(parts) == 1:
		f.indices[name] = nil
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	case len(parts) == 2 && parts[1] == "_bulk":
		if f.failBulk {
			_, _ = w.Write([]byte(`{"errors":true,"items":[{"index":{"status":400,"error":{"reason":"dims mismatch"}}}]}`))
			return
		}
		sc := bufio.NewScanner(r.Body)
		sc.Buffer(make([]byte, 1<<20), 1<<20)
		line := 0
		for sc.Scan() {
			if line%2 == 1 {
				var doc map[string]interface{}
				_ = json.Unmarshal(sc.Bytes(), &doc)
				f.indices[name] = append(f.indices[name], doc)
			}
			line++
		}
		_, _ = w.Write([]byte(`{"errors":false,"items":[]}`))
	case len(parts) == 2 && parts[1] == "_search":
		var req struct {
			KNN struct {
				QueryVector []float64 `json:"query_vector"`
			} `json:"knn"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		docs, ok := f.indices[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
			return
		}
		var hits []map[string]interface{}
		for _, doc := range docs {
			var score float64
			vec, _ := doc["embedding"].([]interface{})
			for i, v := range vec {
				if i < len(req.KNN.QueryVector) {
					score += v.(float64) * req.KNN.QueryVector[i]
				}
			}
			hits = append(hits, map[string]interface{}{
				"_score":  score,
				"_source": map[string]interface{}{"chunk_index": doc["chunk_index"]},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"hits": map[string]interface{}{"hits": hits}})
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"unsupported"}`))
	}
}

type axisEmbedder struct{}

func (axisEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	switch {
	case strings.Contains(text, "qubit"):
		return []float32{1, 0}, nil
	case strings.Contains(text, "RSA"):
		return []float32{0, 1}, nil
	}
	return []float32{0.5, 0.5}, nil
}

func newBackend(t *testing.T, cluster *fakeCluster) *elasticsearch.Backend {
	t.Helper()
	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)
	client, err := elasticsearch.NewClient([]string{srv.URL}, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return elasticsearch.NewBackend(client, axisEmbedder{})
}

var chunks = []rag.Chunk{
	{ID: "fixed_size-0000", Strategy: "fixed_size", Index: 0, Content: "RSA relies on factoring."},
	{ID: "fixed_size-0001", Strategy: "fixed_size", Index: 1, Content: "Applications are broad."},
	{ID: "fixed_size-0002", Strategy: "fixed_size", Index: 2, Content: "A qubit is a quantum bit."},
}

func TestBuildAndSearch(t *testing.T) {
	cluster := newFakeCluster()
	backend := newBackend(t, cluster)

	idx, err := backend.Build(context.Background(), "fixed_size", chunks)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if idx.Len() != 3 {
		t.Errorf("Len() = %d, want 3", idx.Len())
	}
	names := cluster.names("ragcompare-fixed_size-")
	if len(names) != 1 {
		t.Fatalf("cluster indices = %v, want one versioned fixed_size index", names)
	}
	if docs, _ := cluster.docs(names[0]); len(docs) != 3 {
		t.Errorf("cluster holds %d docs, want 3", len(docs))
	}

	hits, err := idx.Search(context.Background(), "what is a qubit", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Search() returned %d hits, want 2", len(hits))
	}
	if hits[0].Chunk.Index != 2 || hits[1].Chunk.Index != 1 {
		t.Errorf("Search() order = [%d %d], want [2 1]", hits[0].Chunk.Index, hits[1].Chunk.Index)
	}
}

func TestBuildDropsIndexOnBulkFailure(t *testing.T) {
	cluster := newFakeCluster()
	cluster.failBulk = true
	backend := newBackend(t, cluster)

	idx, err := backend.Build(context.Background(), "recursive", chunks)
	if !errors.Is(err, rag.ErrIndex) {
		t.Fatalf("Build() error = %v, want ErrIndex", err)
	}
	if idx != nil {
		t.Errorf("Build() returned a partial index")
	}
	if names := cluster.names("ragcompare-recursive"); len(names) != 0 {
		t.Errorf("half-built indices %v were not deleted", names)
	}
}

func topContent(t *testing.T, idx rag.Index) string {
	t.Helper()
	hits, err := idx.Search(context.Background(), "what is a qubit", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Search() returned %d hits, want 1", len(hits))
	}
	return hits[0].Chunk.Content
}

func TestRebuildLeavesServedIndexIntact(t *testing.T) {
	cluster := newFakeCluster()
	backend := newBackend(t, cluster)
	ctx := context.Background()

	old, err := backend.Build(ctx, "fixed_size", chunks)
	if err != nil {
		t.Fatalf("Build(v1) error = %v", err)
	}

	v2 := []rag.Chunk{
		{ID: "fixed_size-0000", Strategy: "fixed_size", Index: 0, Content: "A qubit can be entangled."},
		{ID: "fixed_size-0001", Strategy: "fixed_size", Index: 1, Content: "RSA keys are long."},
	}
	fresh, err := backend.Build(ctx, "fixed_size", v2)
	if err != nil {
		t.Fatalf("Build(v2) error = %v", err)
	}
	if names := cluster.names("ragcompare-fixed_size-"); len(names) != 2 {
		t.Fatalf("cluster indices = %v, want both versions during the swap", names)
	}
	if got := topContent(t, old); got != "A qubit is a quantum bit." {
		t.Errorf("old index top hit = %q, want its own chunk", got)
	}
	if got := topContent(t, fresh); got != "A qubit can be entangled." {
		t.Errorf("new index top hit = %q", got)
	}

	cluster.mu.Lock()
	cluster.failBulk = true
	cluster.mu.Unlock()
	if _, err := backend.Build(ctx, "fixed_size", v2); !errors.Is(err, rag.ErrIndex) {
		t.Fatalf("failing Build() error = %v, want ErrIndex", err)
	}
	if got := topContent(t, fresh); got != "A qubit can be entangled." {
		t.Errorf("served index top hit after failed rebuild = %q", got)
	}

	if err := index.Release(ctx, old); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if names := cluster.names("ragcompare-fixed_size-"); len(names) != 1 {
		t.Errorf("cluster indices after release = %v, want only the new version", names)
	}
	if _, err := old.Search(ctx, "what is a qubit", 1); !errors.Is(err, index.ErrReleased) {
		t.Errorf("Search() on released index error = %v, want ErrReleased", err)
	}
	if err := index.Release(ctx, old); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
}

func TestParseSearchHits(t *testing.T) {
	body := `{"hits":{"hits":[
		{"_score":0.7,"_source":{"chunk_index":1}},
		{"_score":0.9,"_source":{}},
		{"_score":0.5,"_source":{"chunk_index":7}}
	]}}`
	known := map[int]rag.Chunk{1: {Index: 1, Content: "one"}}

	hits, err := elasticsearch.ParseSearchHits(strings.NewReader(body), known)
	if err != nil {
		t.Fatalf("ParseSearchHits() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Chunk.Content != "one" || hits[0].Score != 0.7 {
		t.Errorf("ParseSearchHits() = %+v", hits)
	}

	if _, err := elasticsearch.ParseSearchHits(strings.NewReader("{"), known); err == nil {
		t.Errorf("ParseSearchHits() of truncated json returned no error")
	}
}

func TestIndexName(t *testing.T) {
	if got := elasticsearch.IndexName("Fixed_Size"); got != "ragcompare-fixed_size" {
		t.Errorf("IndexName() = %q", got)
	}
	if got := elasticsearch.VersionedIndexName("Fixed_Size", "AB12"); got != "ragcompare-fixed_size-ab12" {
		t.Errorf("VersionedIndexName() = %q", got)
	}
}
