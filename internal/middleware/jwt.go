package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Guest token lifetime

	"storefront/internal/session" // Session scopes
	"storefront/internal/utils"   // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

const sessionKey = "session" // gin context key holding *session.Session

// SessionTokenHeader carries the token of a newly opened anonymous session.
const SessionTokenHeader = "X-Session-Token"

// SessionMiddleware resolves the bearer token into a session. Requests
// without a token get a fresh anonymous session whose token is returned in
// SessionTokenHeader.
func SessionMiddleware(secret string, guestTTL time.Duration, manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// No header: anonymous shopper
		if authHeader == "" {
			s := manager.Anonymous()
			token, err := utils.GenerateJWT(s.ID(), false, secret, guestTTL)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
				return
			}
			c.Header(SessionTokenHeader, token)
			c.Set(sessionKey, s)
			c.Next()
			return
		}
		// Header present but not a bearer token
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string and parse it
		claims, err := utils.ParseJWT(tokenStr, secret)       // Parse the JWT token
		if err != nil {
			// If parsing fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		var expires time.Time
		if claims.ExpiresAt != nil {
			expires = claims.ExpiresAt.Time
		}
		c.Set(sessionKey, manager.ResumeUntil(claims.SessionID, expires)) // Store session in context
		c.Next()                                                          // Proceed to the next handler
	}
}

// SetSession stores s on the request context.
func SetSession(c *gin.Context, s *session.Session) {
	c.Set(sessionKey, s)
}

// SessionFrom returns the session set by SessionMiddleware.
func SessionFrom(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*session.Session)
	return s, ok
}
