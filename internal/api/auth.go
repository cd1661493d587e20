package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Token lifetimes

	"storefront/internal/domain"   // Domain models
	"storefront/internal/identity" // Identity store
	"storefront/internal/metrics"  // Storefront metrics
	"storefront/internal/session"  // Session scopes
	"storefront/internal/utils"    // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Tokens signs session tokens
type Tokens struct {
	Secret      string        // HS256 secret
	TTL         time.Duration // Lifetime of tab-scoped sessions
	RememberTTL time.Duration // Lifetime of remembered sessions
}

// issue signs a token for the session
func (t Tokens) issue(s *session.Session, remember bool) (string, time.Time, error) {
	ttl := t.TTL
	if remember {
		ttl = t.RememberTTL
	}
	token, err := utils.GenerateJWT(s.ID(), remember, t.Secret, ttl)
	return token, time.Now().Add(ttl), err
}

// Request struct for registration
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`           // Display name must be provided
	Email    string `json:"email" binding:"required,email"`    // Email must be provided
	Password string `json:"password" binding:"required,min=4"` // Password must be provided
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
	Remember bool   `json:"remember"`                    // Keep the identity across restarts
}

// Response struct for authentication
type AuthResponse struct {
	Token     string       `json:"token"`      // JWT token
	ExpiresAt time.Time    `json:"expires_at"` // Token expiry
	User      *domain.User `json:"user"`       // Authenticated user
}

// RegisterHandler creates an account and starts a session for it
func RegisterHandler(ids *identity.Service, sessions *session.Manager, tokens Tokens, m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		ctx := c.Request.Context()
		user, err := ids.Register(ctx, strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		m.RecordRegistration()
		// Log the new account in for this tab
		s, err := sessions.Start(ctx, user, false)
		if err != nil {
			respondError(c, err)
			return
		}
		token, expires, err := tokens.issue(s, false)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusCreated, AuthResponse{Token: token, ExpiresAt: expires, User: user})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(ids *identity.Service, sessions *session.Manager, tokens Tokens, m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		ctx := c.Request.Context()
		user, err := ids.Login(ctx, strings.TrimSpace(req.Email), req.Password)
		if err != nil {
			m.RecordLogin(false)
			respondError(c, err)
			return
		}
		m.RecordLogin(true)
		// Start a session holding the identity
		s, err := sessions.Start(ctx, user, req.Remember)
		if err != nil {
			respondError(c, err)
			return
		}
		token, expires, err := tokens.issue(s, req.Remember)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,
			"role":    user.Role,
		}).Info("User logged in")
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token, ExpiresAt: expires, User: user})
	}
}

// LogoutHandler clears the identity from both session scopes
func LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := sessionOf(c)
		if !ok {
			return
		}
		s.Clear(c.Request.Context()) // Never fails; errors are logged
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

// MeHandler returns the current user, or null for anonymous shoppers
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := sessionOf(c)
		if !ok {
			return
		}
		user, err := s.Current(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user, "owner": domain.OwnerOf(user)})
	}
}
