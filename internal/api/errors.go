package api

import (
	"context"  // Request cancellation
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"storefront/internal/domain"     // Domain errors
	"storefront/internal/middleware" // Session lookup
	"storefront/internal/session"    // Session type

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAccessDenied), errors.Is(err, domain.ErrCartItemNotOwned):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrCartItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyCart), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		}).Error("Request failed")
		msg = "Internal server error" // Hide internals from clients
	}
	c.JSON(status, gin.H{"error": msg})
}

// sessionOf returns the request's session, replying 401 when there is none
func sessionOf(c *gin.Context) (*session.Session, bool) {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return s, ok
}
