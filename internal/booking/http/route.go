package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the ledger endpoints. bookLimiter guards booking creation.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware, bookLimiter gin.HandlerFunc) {
	// === Public Routes ===
	g.GET("/availability", h.Availability)

	// === Authenticated Routes ===
	authed := g.Group("")
	authed.Use(authMiddleware)
	{
		authed.POST("/book", bookLimiter, h.Create)
		authed.GET("/my-bookings", h.ListMine)
		authed.DELETE("/book/:id", h.Delete)
	}

	// === Admin Routes ===
	admin := g.Group("")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.PUT("/book/:id", h.Update)
		admin.GET("/bookings", h.ListAll)
		admin.GET("/booking-stats", h.Stats)
		admin.GET("/booking-count", h.Count)
	}
}
