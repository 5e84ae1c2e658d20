package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/set-night/aishifts/internal/middleware"
)

const apiPrefix = "/api"

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	engine := gin.New()
	engine.MaxMultipartMemory = h.cfg.MaxUploadBytes
	engine.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Logging(),
		middleware.CORS(h.cfg.CORSOrigin),
		middleware.RateLimit(h.cfg.RateLimitPerMinute),
	)

	api := engine.Group(apiPrefix)
	api.GET("/health", h.Health)
	api.POST("/gemini", h.Gemini)
	api.POST("/fal", h.limitBody(), h.Fal)
	api.POST("/generate", h.limitBody(), h.Generate)

	if h.catalog != nil {
		api.GET("/categories", h.Categories)
		api.GET("/items", h.Items)
		api.GET("/feed", h.Feed)
		api.POST("/items/:id/comments", h.AddComment)
	}
	return engine
}
