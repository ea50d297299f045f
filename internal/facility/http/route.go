package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	g.GET("/facilities", h.List)
	g.POST("/facilities", authMiddleware, adminMiddleware, h.Create)
}
