package handlers

import (
	"net/http"

	"favlinks/internal/repository"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ShowIndex(c *gin.Context) {
	h.render(c, http.StatusOK, "index", gin.H{"Title": "Home"})
}

func (h *Handler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "errors/404", gin.H{"Title": "Not found"})
}

// Health reports whether the database answers a trivial query.
func (h *Handler) Health(c *gin.Context) {
	if _, err := h.pool.Execute(c.Request.Context(), "SELECT 1"); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"category": repository.Classify(err),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
