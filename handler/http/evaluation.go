package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ragcompare/src/core/chunking"
	"ragcompare/src/core/rag"
	"ragcompare/src/infrastructure/job"
)

// CreateEvaluation godoc
// @Summary Enqueue an evaluation run
// @Tags evaluations
// @Accept json
// @Produce json
// @Param body body job.EvaluationPayload false "Strategies and cases, all optional"
// @Success 202 {object} job.Job
// @Failure 400 {object} ErrorResponse
// @Router /evaluations [post]
func (h *Handler) CreateEvaluation(c *gin.Context) {
	if h.jobs == nil {
		sendError(c, http.StatusServiceUnavailable, errJobsDisabled)
		return
	}

	// An empty body, with or without a content length, runs the defaults.
	var payload job.EvaluationPayload
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		sendError(c, http.StatusBadRequest, err)
		return
	}
	if payload.ChunkingStrategy != "" {
		if _, ok := chunking.Lookup(payload.ChunkingStrategy); !ok {
			sendError(c, http.StatusBadRequest, &rag.Error{
				Kind:     rag.ErrUnknownStrategy,
				Strategy: payload.ChunkingStrategy,
				Err:      fmt.Errorf("chunking strategy %q does not exist", payload.ChunkingStrategy),
			})
			return
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	created, err := h.jobs.EnqueueJob(c.Request.Context(), job.TaskTypeEvaluation, raw)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	sendJSON(c, http.StatusAccepted, created)
}

func (h *Handler) GetEvaluation(c *gin.Context) {
	if h.jobs == nil {
		sendError(c, http.StatusServiceUnavailable, errJobsDisabled)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		sendError(c, http.StatusBadRequest, fmt.Errorf("invalid job id %q", c.Param("id")))
		return
	}
	found, err := h.jobs.GetJob(c.Request.Context(), id)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	if found == nil || found.TaskType != job.TaskTypeEvaluation {
		sendError(c, http.StatusNotFound, fmt.Errorf("evaluation %d not found", id))
		return
	}
	sendJSON(c, http.StatusOK, found)
}
