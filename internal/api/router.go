package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mvbarbosa/docpipe/middleware"
)

// NewRouter wires the ingest endpoints.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.ErrorHandler())

	group := r.Group("/api")
	group.POST("/documents", h.EnqueueDocument)
	group.GET("/jobs/:id", h.GetJob)
	group.GET("/stats", h.Stats)

	return r
}
