package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

func registerHealthRoutes(r *gin.Engine, dbCheck func(ctx context.Context) error) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	r.GET("/health/db", func(c *gin.Context) {
		if dbCheck == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "dbOk": false})
			return
		}
		if err := dbCheck(c.Request.Context()); err != nil {
			slog.ErrorContext(c.Request.Context(), "database health check failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "dbOk": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "dbOk": true})
	})
}
