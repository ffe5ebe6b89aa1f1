package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ragcompare/src/core/rag"
)

type strategyResponse struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// ListChunkingStrategies godoc
// @Summary List chunking strategies with their descriptions
// @Tags strategies
// @Produce json
// @Success 200 {array} strategyResponse
// @Router /chunking_strategies [get]
func (h *Handler) ListChunkingStrategies(c *gin.Context) {
	strategies := h.rag.ChunkingStrategies()
	out := make([]strategyResponse, len(strategies))
	for i, s := range strategies {
		out[i] = strategyResponse{ID: s.ID, Label: s.Label, Description: s.Description}
	}
	sendJSON(c, http.StatusOK, out)
}

// ListPromptingMethods godoc
// @Summary List prompting strategies with their labels
// @Tags strategies
// @Produce json
// @Success 200 {array} strategyResponse
// @Router /prompting_methods [get]
func (h *Handler) ListPromptingMethods(c *gin.Context) {
	strategies := h.rag.PromptingStrategies()
	out := make([]strategyResponse, len(strategies))
	for i, s := range strategies {
		out[i] = strategyResponse{ID: s.ID, Label: s.Label}
	}
	sendJSON(c, http.StatusOK, out)
}

func (h *Handler) AnalyzeChunking(c *gin.Context) {
	analysis, err := h.rag.ChunkingAnalysis(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, analysis)
}

// Query godoc
// @Summary Answer a question with one chunking and prompting strategy
// @Tags query
// @Accept json
// @Produce json
// @Param body body rag.QueryRequest true "Question, method, prompt_method and optional custom_prompt"
// @Success 200 {object} rag.QueryResult
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /query [post]
func (h *Handler) Query(c *gin.Context) {
	var req rag.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" || req.ChunkingStrategy == "" {
		sendError(c, http.StatusBadRequest, &rag.Error{
			Kind: rag.ErrInvalidRequest,
			Err:  errors.New("question and method are required"),
		})
		return
	}

	result, err := h.rag.Answer(c.Request.Context(), req)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, result)
}

type compareRequest struct {
	Question     string `json:"question" binding:"required"`
	PromptMethod string `json:"prompt_method"`
	CustomPrompt string `json:"custom_prompt"`
}

// CompareMethods answers one question with every chunking strategy.
func (h *Handler) CompareMethods(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}
	results := h.rag.Compare(c.Request.Context(), req.Question, req.PromptMethod, req.CustomPrompt)
	sendJSON(c, http.StatusOK, gin.H{
		"question": req.Question,
		"results":  results,
	})
}

func (h *Handler) SampleQueries(c *gin.Context) {
	sendJSON(c, http.StatusOK, gin.H{"queries": h.rag.SampleQueries()})
}

func (h *Handler) RebuildIndexes(c *gin.Context) {
	report, err := h.rag.BuildIndexes(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusOK, report)
}

// CheckHealth reports 503 when the document cannot be read or an index failed to build.
func (h *Handler) CheckHealth(c *gin.Context) {
	st := h.rag.Status(c.Request.Context())
	status := http.StatusOK
	state := "ok"
	if st.DocumentError != "" || len(st.Failures) > 0 {
		status = http.StatusServiceUnavailable
		state = "degraded"
	} else if st.Stale {
		state = "stale"
	}
	sendJSON(c, status, gin.H{
		"status":  state,
		"details": st,
	})
}
