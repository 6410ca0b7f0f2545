package handler

import (
	"net/http"
	"strconv"

	"github.com/feastly/feastly/internal/api/middleware"
	"github.com/feastly/feastly/internal/domain"
	"github.com/feastly/feastly/internal/service"
	"github.com/gin-gonic/gin"
)

// RecipeHandler handles recipe fetch, feed, and lifecycle endpoints.
type RecipeHandler struct {
	retrieval  *service.RetrievalService
	moderation *service.ModerationService
}

// NewRecipeHandler creates a new recipe handler.
// Parameters:
//   - retrieval: retrieval service instance.
//   - moderation: moderation service instance.
// Returns:
//   - *RecipeHandler: initialized handler.
func NewRecipeHandler(retrieval *service.RetrievalService, moderation *service.ModerationService) *RecipeHandler {
	return &RecipeHandler{retrieval: retrieval, moderation: moderation}
}

// recipeID parses the :id path parameter. A malformed ID is reported to the
// client directly; the bool result tells the caller to stop.
func recipeID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return 0, false
	}
	return uint(id), true
}

// Get handles GET /api/v1/recipes/:id.
func (h *RecipeHandler) Get(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	recipe, err := h.retrieval.GetByID(c.Request.Context(), id, middleware.Viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// Recommended handles GET /api/v1/recipes/:id/recommended.
func (h *RecipeHandler) Recommended(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	recipes, err := h.retrieval.Recommended(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": recipes,
		"total":   len(recipes),
	})
}

// Random handles GET /api/v1/recipes/random.
func (h *RecipeHandler) Random(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	recipes, err := h.retrieval.RandomFeed(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": recipes,
		"total":   len(recipes),
	})
}

// Pending handles GET /api/v1/recipes/pending.
func (h *RecipeHandler) Pending(c *gin.Context) {
	recipes, err := h.retrieval.ListPending(c.Request.Context(), middleware.Viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": recipes,
		"total":   len(recipes),
	})
}

// History handles GET /api/v1/recipes/history.
func (h *RecipeHandler) History(c *gin.Context) {
	page := 0
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
			return
		}
		page = parsed
	}

	recipes, err := h.retrieval.History(c.Request.Context(), middleware.Viewer(c), page)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": recipes,
		"total":   len(recipes),
		"page":    page,
	})
}

// Create handles POST /api/v1/recipes.
func (h *RecipeHandler) Create(c *gin.Context) {
	var input service.CreateRecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	recipe, err := h.moderation.Create(c.Request.Context(), middleware.Viewer(c), &input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, recipe)
}

// Edit handles POST /api/v1/recipes/:id/edit.
func (h *RecipeHandler) Edit(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	var patch domain.RecipePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	recipe, err := h.moderation.Edit(c.Request.Context(), middleware.Viewer(c), id, &patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// Approve handles POST /api/v1/recipes/:id/approve.
func (h *RecipeHandler) Approve(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	if err := h.moderation.Approve(c.Request.Context(), middleware.Viewer(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}

// Delete handles DELETE /api/v1/recipes/:id.
func (h *RecipeHandler) Delete(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	if err := h.moderation.Delete(c.Request.Context(), middleware.Viewer(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
