package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ragcompare/src/core/chunking"
	"ragcompare/src/core/pipeline"
	"ragcompare/src/core/prompting"
	"ragcompare/src/core/rag"
	"ragcompare/src/infrastructure/job"
)

// RAGService is the part of the pipeline the API exposes.
type RAGService interface {
	ChunkingStrategies() []chunking.Strategy
	PromptingStrategies() []prompting.Strategy
	ChunkingAnalysis(ctx context.Context) (map[string]rag.ChunkingAnalysis, error)
	Answer(ctx context.Context, req rag.QueryRequest) (*rag.QueryResult, error)
	Compare(ctx context.Context, question, promptMethod, customPrompt string) []pipeline.Comparison
	SampleQueries() []string
	BuildIndexes(ctx context.Context) (*pipeline.BuildReport, error)
	Status(ctx context.Context) pipeline.Status
}

type DocumentReader interface {
	Name() string
	Text(ctx context.Context) (string, error)
}

type JobQueue interface {
	EnqueueJob(ctx context.Context, taskType string, payload json.RawMessage) (*job.Job, error)
	GetJob(ctx context.Context, id int64) (*job.Job, error)
}

var errJobsDisabled = errors.New("evaluation jobs are not enabled")

type Handler struct {
	rag  RAGService
	doc  DocumentReader
	jobs JobQueue
}

// NewHandler builds the API handler. jobs may be nil, which disables the evaluation endpoints.
func NewHandler(ragService RAGService, doc DocumentReader, jobs JobQueue) *Handler {
	return &Handler{
		rag:  ragService,
		doc:  doc,
		jobs: jobs,
	}
}

// NewRouter returns a gin engine with the middleware stack and every route registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog())
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")

	// Strategy tables
	v1.GET("/chunking_strategies", h.ListChunkingStrategies)
	v1.GET("/prompting_methods", h.ListPromptingMethods)
	v1.GET("/analyze_chunking", h.AnalyzeChunking)

	// Question answering
	v1.POST("/query", h.Query)
	v1.POST("/compare_methods", h.CompareMethods)
	v1.GET("/sample_queries", h.SampleQueries)

	// Document and indices
	v1.GET("/document", h.GetDocument)
	v1.POST("/indexes/rebuild", h.RebuildIndexes)

	// Evaluation jobs
	v1.POST("/evaluations", h.CreateEvaluation)
	v1.GET("/evaluations/:id", h.GetEvaluation)

	v1.GET("/health", h.CheckHealth)
}

// Common error response structure
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func errorCode(err error) (int, string) {
	switch rag.KindOf(err) {
	case rag.ErrInvalidRequest:
		return http.StatusBadRequest, "INVALID_REQUEST"
	case rag.ErrUnknownStrategy:
		return http.StatusBadRequest, "UNKNOWN_STRATEGY"
	case rag.ErrDocumentLoad:
		return http.StatusInternalServerError, "DOCUMENT_LOAD_ERROR"
	case rag.ErrEmbedding:
		return http.StatusServiceUnavailable, "EMBEDDING_ERROR"
	case rag.ErrIndex:
		return http.StatusServiceUnavailable, "INDEX_ERROR"
	case rag.ErrGeneration:
		return http.StatusBadGateway, "GENERATION_ERROR"
	case rag.ErrConfiguration:
		return http.StatusInternalServerError, "CONFIGURATION_ERROR"
	}
	return 0, ""
}

// sendError writes err with the status of its kind. Errors without a kind use status.
func sendError(c *gin.Context, status int, err error) {
	code := "INTERNAL_ERROR"
	switch {
	case errors.Is(err, errJobsDisabled):
		status, code = http.StatusServiceUnavailable, "JOBS_DISABLED"
	default:
		if s, k := errorCode(err); k != "" {
			status, code = s, k
		} else if status == http.StatusBadRequest {
			code = "INVALID_REQUEST"
		} else if status == http.StatusNotFound {
			code = "NOT_FOUND"
		}
	}

	resp := ErrorResponse{
		Code:    code,
		Message: err.Error(),
	}
	var re *rag.Error
	if errors.As(err, &re) && re.Strategy != "" {
		resp.Details = gin.H{"strategy": re.Strategy}
	}
	c.JSON(status, resp)
}

func sendJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
