package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ragcompare/src/core/document"
)

type documentResponse struct {
	Name            string `json:"name"`
	WordCount       int    `json:"word_count"`
	Valid           bool   `json:"valid"`
	ValidationError string `json:"validation_error,omitempty"`
	MinWords        int    `json:"min_words"`
	MaxWords        int    `json:"max_words"`
}

// GetDocument reports the word count of the current document and whether it is a valid article.
func (h *Handler) GetDocument(c *gin.Context) {
	text, err := h.doc.Text(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	n, verr := document.ValidateArticle(text)
	resp := documentResponse{
		Name:      h.doc.Name(),
		WordCount: n,
		Valid:     verr == nil,
		MinWords:  document.MinArticleWords,
		MaxWords:  document.MaxArticleWords,
	}
	if verr != nil {
		resp.ValidationError = verr.Error()
	}
	sendJSON(c, http.StatusOK, resp)
}
