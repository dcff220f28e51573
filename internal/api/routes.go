package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up the browser shell, the generation endpoint and the
// health check.
func RegisterRoutes(router *gin.Engine, h *Handler) {
	router.GET("/", h.Index)

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/generate", h.Generate)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
