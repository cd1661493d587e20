package middleware

import (
	"net/http" // HTTP status codes

	"storefront/internal/domain" // Roles

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
)

// LoginPath is where shoppers without access are sent.
const LoginPath = "/auth/login"

// AdminOnlyMiddleware checks the session's role on each request
func AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := SessionFrom(c) // Get session from context
		// Check if session exists in context
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "login": LoginPath})
			return
		}
		user, err := s.Current(c.Request.Context())
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"session": s.ID(),
				"error":   err.Error(),
			}).Error("Failed to resolve session identity")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Session storage unavailable"})
			return
		}
		// Anonymous shoppers must log in first
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Login required", "login": LoginPath})
			return
		}
		// Check if user role is admin
		if !user.HasRole(domain.RoleAdmin) {
			// If not admin, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required", "login": LoginPath})
			return
		}
		// If admin, proceed to the next handler
		c.Next()
	}
}
