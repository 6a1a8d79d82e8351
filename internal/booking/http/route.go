package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.GET("/:id/series", h.Series)
		group.POST("", h.Create)
		group.PATCH("/:id", h.Edit)
		group.POST("/:id/confirm", h.Confirm)
		group.POST("/:id/cancel", h.Cancel)
	}

	g.GET("/resources/:id/availability", authMiddleware, h.Availability)
}
