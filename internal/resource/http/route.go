package http

import (
	"github.com/gin-gonic/gin"

	"github.com/kanemolly/campus-resource-hub/internal/auth"
)

// RegisterRoutes registers resource-related routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/resources")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)    // List resources
		group.GET("/:id", h.Get) // Get resource details
	}

	// === Staff Routes ===
	staff := group.Group("", auth.RequirePrivileged())
	{
		staff.POST("", h.Create)      // Create resource
		staff.PATCH("/:id", h.Update) // Update resource
	}
}
