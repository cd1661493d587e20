package utils

import (
	"errors" // Error values
	"time"   // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// JWT Claims
type Claims struct {
	SessionID            string `json:"sid"`      // Session the bearer resumes
	Remember             bool   `json:"remember"` // Identity lives in the durable scope
	jwt.RegisteredClaims        // Standard JWT claims
}

// GenerateJWT creates a JWT token for a session id
func GenerateJWT(sessionID string, remember bool, secret string, ttl time.Duration) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id is required")
	}
	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		Remember:  remember,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)), // Token expiry
			IssuedAt:  jwt.NewNumericDate(now),          // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a JWT token string
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.SessionID != "" {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
