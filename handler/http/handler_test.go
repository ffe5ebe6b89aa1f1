package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	handler "ragcompare/handler/http"
	"ragcompare/src/core/chunking"
	"ragcompare/src/core/pipeline"
	"ragcompare/src/core/prompting"
	"ragcompare/src/core/rag"
	"ragcompare/src/infrastructure/job"
)

type fakeRAG struct {
	status pipeline.Status
	last   rag.QueryRequest
}

func (f *fakeRAG) ChunkingStrategies() []chunking.Strategy   { return chunking.All() }
func (f *fakeRAG) PromptingStrategies() []prompting.Strategy { return prompting.All() }
func (f *fakeRAG) SampleQueries() []string                   { return []string{"What is a qubit?"} }
func (f *fakeRAG) Status(context.Context) pipeline.Status    { return f.status }

func (f *fakeRAG) ChunkingAnalysis(context.Context) (map[string]rag.ChunkingAnalysis, error) {
	return map[string]rag.ChunkingAnalysis{"fixed_size": {TotalChunks: 2}}, nil
}

func (f *fakeRAG) Answer(_ context.Context, req rag.QueryRequest) (*rag.QueryResult, error) {
	f.last = req
	if _, ok := chunking.Lookup(req.ChunkingStrategy); !ok {
		return nil, &rag.Error{Kind: rag.ErrUnknownStrategy, Strategy: req.ChunkingStrategy, Err: errors.New("no such strategy")}
	}
	if req.Question == "fail" {
		return nil, &rag.Error{Kind: rag.ErrGeneration, Strategy: req.ChunkingStrategy, Err: errors.New("upstream timeout")}
	}
	return &rag.QueryResult{Answer: "a qubit is a quantum bit", Method: req.ChunkingStrategy, PromptMethod: "default"}, nil
}

func (f *fakeRAG) Compare(_ context.Context, question, _, _ string) []pipeline.Comparison {
	return []pipeline.Comparison{{Method: "fixed_size"}, {Method: "sentence_splitter"}, {Method: "recursive"}}
}

func (f *fakeRAG) BuildIndexes(context.Context) (*pipeline.BuildReport, error) {
	return &pipeline.BuildReport{Chunks: map[string]int{"fixed_size": 4}}, nil
}

type fakeDocument struct{ text string }

func (d fakeDocument) Name() string                         { return "sample_document.txt" }
func (d fakeDocument) Text(context.Context) (string, error) { return d.text, nil }

type fakeQueue struct {
	jobs map[int64]*job.Job
}

func (q *fakeQueue) EnqueueJob(_ context.Context, taskType string, payload json.RawMessage) (*job.Job, error) {
	j := &job.Job{ID: int64(len(q.jobs) + 1), TaskType: taskType, Payload: payload, Status: job.JobStatusPending}
	q.jobs[j.ID] = j
	return j, nil
}

func (q *fakeQueue) GetJob(_ context.Context, id int64) (*job.Job, error) {
	return q.jobs[id], nil
}

func newRouter(svc *fakeRAG, queue handler.JobQueue) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return handler.NewRouter(handler.NewHandler(svc, fakeDocument{text: strings.Repeat("word ", 600)}, queue))
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"answered", `{"question":"What is a qubit?","method":"fixed_size","prompt_method":"zero_shot"}`, http.StatusOK, ""},
		{"missing method", `{"question":"What is a qubit?"}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing question", `{"method":"fixed_size"}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"malformed json", `{"question":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown strategy", `{"question":"q","method":"nonexistent_strategy"}`, http.StatusBadRequest, "UNKNOWN_STRATEGY"},
		{"generation failure", `{"question":"fail","method":"recursive"}`, http.StatusBadGateway, "GENERATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(&fakeRAG{}, nil), http.MethodPost, "/api/v1/query", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantCode == "" {
				var res rag.QueryResult
				if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
					t.Fatalf("Unmarshal() error = %v", err)
				}
				if res.Answer == "" || res.Method != "fixed_size" {
					t.Errorf("result = %+v", res)
				}
				return
			}
			var resp handler.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestQueryPassesCustomPrompt(t *testing.T) {
	svc := &fakeRAG{}
	body := `{"question":"q","method":"fixed_size","prompt_method":"few_shot","custom_prompt":"{context} / {question}"}`
	if w := do(newRouter(svc, nil), http.MethodPost, "/api/v1/query", body); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.last.CustomPrompt != "{context} / {question}" || svc.last.PromptingStrategy != "few_shot" {
		t.Errorf("request = %+v", svc.last)
	}
}

func TestListings(t *testing.T) {
	r := newRouter(&fakeRAG{}, nil)
	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/chunking_strategies", 3},
		{"/api/v1/prompting_methods", 10},
	}
	for _, tt := range tests {
		w := do(r, http.MethodGet, tt.path, "")
		var items []map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
			t.Fatalf("GET %s: %v", tt.path, err)
		}
		if w.Code != http.StatusOK || len(items) != tt.want {
			t.Errorf("GET %s = %d with %d items, want 200 with %d", tt.path, w.Code, len(items), tt.want)
		}
	}

	w := do(r, http.MethodGet, "/api/v1/sample_queries", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "What is a qubit?") {
		t.Errorf("GET sample_queries = %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, "/api/v1/compare_methods", `{"question":"What is a qubit?"}`)
	if w.Code != http.StatusOK || strings.Count(w.Body.String(), `"method"`) != 3 {
		t.Errorf("POST compare_methods = %d %s", w.Code, w.Body.String())
	}
}

func TestDocument(t *testing.T) {
	w := do(newRouter(&fakeRAG{}, nil), http.MethodGet, "/api/v1/document", "")
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if resp["word_count"] != float64(600) || resp["valid"] != true {
		t.Errorf("document = %v", resp)
	}
}

func TestEvaluations(t *testing.T) {
	queue := &fakeQueue{jobs: make(map[int64]*job.Job)}
	r := newRouter(&fakeRAG{}, queue)

	w := do(r, http.MethodPost, "/api/v1/evaluations", `{"prompting_strategy":"few_shot"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("POST evaluations = %d %s", w.Code, w.Body.String())
	}
	var created job.Job
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if created.TaskType != job.TaskTypeEvaluation {
		t.Errorf("task type = %q", created.TaskType)
	}

	if w := do(r, http.MethodPost, "/api/v1/evaluations", ""); w.Code != http.StatusAccepted {
		t.Errorf("POST evaluations without body = %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/v1/evaluations", `{"chunking_strategy":"bogus"}`); w.Code != http.StatusBadRequest {
		t.Errorf("POST evaluations with unknown strategy = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/evaluations/1", ""); w.Code != http.StatusOK {
		t.Errorf("GET evaluations/1 = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/evaluations/999", ""); w.Code != http.StatusNotFound {
		t.Errorf("GET evaluations/999 = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/evaluations/abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("GET evaluations/abc = %d", w.Code)
	}
}

func TestEvaluationsEmptyBody(t *testing.T) {
	tests := []struct {
		name string
		body io.Reader
		want int
	}{
		{name: "no body", body: nil, want: http.StatusAccepted},
		{name: "chunked empty body", body: io.MultiReader(), want: http.StatusAccepted},
		{name: "chunked malformed body", body: io.MultiReader(strings.NewReader(`{"cases":`)), want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := &fakeQueue{jobs: make(map[int64]*job.Job)}
			r := newRouter(&fakeRAG{}, queue)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluations", tt.body)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("POST evaluations = %d %s, want %d", w.Code, w.Body.String(), tt.want)
			}
			if tt.want == http.StatusAccepted && string(queue.jobs[1].Payload) != "{}" {
				t.Errorf("queued payload = %s, want the defaults", queue.jobs[1].Payload)
			}
		})
	}
}

func TestEvaluationsDisabled(t *testing.T) {
	w := do(newRouter(&fakeRAG{}, nil), http.MethodPost, "/api/v1/evaluations", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("POST evaluations without a queue = %d, want 503", w.Code)
	}
}

func TestHealth(t *testing.T) {
	healthy := &fakeRAG{status: pipeline.Status{Indices: map[string]int{"fixed_size": 3}}}
	if w := do(newRouter(healthy, nil), http.MethodGet, "/api/v1/health", ""); w.Code != http.StatusOK {
		t.Errorf("healthy status = %d", w.Code)
	}

	degraded := &fakeRAG{status: pipeline.Status{Failures: map[string]string{"recursive": "index error"}}}
	if w := do(newRouter(degraded, nil), http.MethodGet, "/api/v1/health", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded status = %d, want 503", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	r := newRouter(&fakeRAG{}, nil)

	w := do(r, http.MethodGet, "/api/v1/sample_queries", "")
	if w.Header().Get(handler.RequestIDHeader) == "" {
		t.Errorf("no request id generated")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sample_queries", nil)
	req.Header.Set(handler.RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(handler.RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}
