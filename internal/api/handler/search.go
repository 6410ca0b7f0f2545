package handler

import (
	"net/http"

	"github.com/feastly/feastly/internal/service"
	"github.com/gin-gonic/gin"
)

// SearchHandler handles the discovery endpoints: text search, autocomplete,
// and direct vector search.
type SearchHandler struct {
	retrieval *service.RetrievalService
}

// NewSearchHandler creates a new search handler.
// Parameters:
//   - retrieval: retrieval service instance.
// Returns:
//   - *SearchHandler: initialized handler.
func NewSearchHandler(retrieval *service.RetrievalService) *SearchHandler {
	return &SearchHandler{retrieval: retrieval}
}

// SearchRequest is the payload for POST /api/v1/search.
type SearchRequest struct {
	Text string `json:"text" binding:"required"`
	Page int    `json:"page"`
}

// Search handles POST /api/v1/search.
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	results, err := h.retrieval.Search(c.Request.Context(), req.Text, req.Page)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"total":   len(results),
		"page":    req.Page,
	})
}

// AutocompleteRequest is the payload for POST /api/v1/autocomplete.
type AutocompleteRequest struct {
	Text string `json:"text" binding:"required"`
}

// Autocomplete handles POST /api/v1/autocomplete.
func (h *SearchHandler) Autocomplete(c *gin.Context) {
	var req AutocompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	titles, err := h.retrieval.Autocomplete(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"titles": titles})
}

// VectorSearchRequest is the payload for POST /api/v1/vector-search. The
// vector is optional; without one the response degrades to a random sample.
type VectorSearchRequest struct {
	Vector []float32 `json:"vector"`
	Limit  int       `json:"limit"`
}

// VectorSearch handles POST /api/v1/vector-search.
func (h *SearchHandler) VectorSearch(c *gin.Context) {
	var req VectorSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	recipes, err := h.retrieval.VectorSearch(c.Request.Context(), req.Vector, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": recipes,
		"total":   len(recipes),
	})
}
