package middleware

import (
	"github.com/gin-gonic/gin"
)

const devUserID = "00000000-0000-0000-0000-000000000001"

// DevelopmentAuthMiddleware is a simple auth middleware for development
func DevelopmentAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			userID = c.GetHeader("X-User-ID")
		}
		if userID == "" {
			userID = devUserID
		}

		c.Set("userId", userID)
		c.Set("user_id", userID)
		c.Next()
	}
}

// GetUserID retrieves the acting user from gin context
func GetUserID(c *gin.Context) string {
	if uid := c.GetString("user_id"); uid != "" {
		return uid
	}
	return c.GetString("userId")
}
