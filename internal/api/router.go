package api

import (
	"github.com/feastly/feastly/internal/api/handler"
	"github.com/feastly/feastly/internal/api/middleware"
	"github.com/feastly/feastly/internal/config"
	"github.com/feastly/feastly/internal/service"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP route tree.
// Parameters:
//   - cfg: server configuration, used for mode and CORS.
//   - retrieval: retrieval service instance.
//   - moderation: moderation service instance.
// Returns:
//   - *gin.Engine: configured engine ready to serve.
func NewRouter(cfg *config.ServerConfig, retrieval *service.RetrievalService, moderation *service.ModerationService) *gin.Engine {
	gin.SetMode(cfg.Mode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))
	router.Use(middleware.Identity())

	healthHandler := handler.NewHealthHandler()
	searchHandler := handler.NewSearchHandler(retrieval)
	recipeHandler := handler.NewRecipeHandler(retrieval, moderation)

	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/search", searchHandler.Search)
		v1.POST("/autocomplete", searchHandler.Autocomplete)
		v1.POST("/vector-search", searchHandler.VectorSearch)

		recipes := v1.Group("/recipes")
		{
			// Static segments before :id so gin does not shadow them.
			recipes.GET("/random", recipeHandler.Random)
			recipes.GET("/pending", recipeHandler.Pending)
			recipes.GET("/history", middleware.RequireAuth(), recipeHandler.History)
			recipes.GET("/:id", recipeHandler.Get)
			recipes.GET("/:id/recommended", recipeHandler.Recommended)

			recipes.POST("", middleware.RequireAuth(), recipeHandler.Create)
			recipes.POST("/:id/edit", middleware.RequireAuth(), recipeHandler.Edit)
			recipes.POST("/:id/approve", middleware.RequireAuth(), recipeHandler.Approve)
			recipes.DELETE("/:id", middleware.RequireAuth(), recipeHandler.Delete)
		}
	}

	return router
}
