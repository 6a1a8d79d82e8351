package auth

import "github.com/gin-gonic/gin"

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// Roles allowed to approve, modify and cancel other people's bookings.
var privilegedRoles = map[string]bool{"staff": true, "admin": true}

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetUserRole returns the authenticated user's role or empty string.
func GetUserRole(c *gin.Context) string {
	return c.GetString(ctxUserRole)
}

// IsPrivileged reports whether the authenticated user is staff or admin.
func IsPrivileged(c *gin.Context) bool {
	return privilegedRoles[GetUserRole(c)]
}
