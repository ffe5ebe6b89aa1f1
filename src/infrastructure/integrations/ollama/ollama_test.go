package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ragcompare/src/infrastructure/integrations/ollama"
)

func newServer(t *testing.T, handler http.HandlerFunc) *ollama.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return ollama.NewClient(srv.URL+"/api", srv.Client())
}

func TestEmbed(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("path = %s, want /api/embeddings", r.URL.Path)
		}
		var req ollama.EmbeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "all-minilm" || req.Prompt != "qubits" {
			t.Errorf("request = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(ollama.EmbeddingResponse{Embedding: []float64{0.5, -0.25, 1}})
	})

	got, err := ollama.NewEmbedder(client, "all-minilm").Embed(context.Background(), "qubits")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	want := []float32{0.5, -0.25, 1}
	if len(got) != len(want) {
		t.Fatalf("Embed() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Embed()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEmbedServerError(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	})

	if _, err := ollama.NewEmbedder(client, "missing").Embed(context.Background(), "x"); err == nil {
		t.Errorf("Embed() error = nil, want error for 404")
	}
}

func TestGenerateCollectsStream(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req ollama.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Options["temperature"] != float64(0) {
			t.Errorf("temperature option = %v, want 0", req.Options["temperature"])
		}
		enc := json.NewEncoder(w)
		_ = enc.Encode(ollama.GenerateResponse{Response: "Qubits are "})
		_ = enc.Encode(ollama.GenerateResponse{Response: "quantum bits."})
		_ = enc.Encode(ollama.GenerateResponse{Done: true})
	})

	got, err := ollama.NewGenerator(client, "llama3", 0).Generate(context.Background(), "What is a qubit?")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "Qubits are quantum bits." {
		t.Errorf("Generate() = %q", got)
	}
}

func TestGenerateTruncated(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollama.GenerateResponse{Response: "partial", Truncated: true})
	})

	_, err := ollama.NewGenerator(client, "llama3", 0).Generate(context.Background(), "q")
	var truncated *ollama.ErrTruncated
	if !errors.As(err, &truncated) {
		t.Errorf("Generate() error = %v, want *ErrTruncated", err)
	}
}

func TestGenerateEmptyStream(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if _, err := ollama.NewGenerator(client, "llama3", 0).Generate(context.Background(), "q"); err == nil {
		t.Errorf("Generate() error = nil, want error for empty stream")
	}
}
