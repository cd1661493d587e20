package api

import (
	"net/http" // HTTP status codes

	"storefront/internal/checkout" // Checkout flow
	"storefront/internal/metrics"  // Storefront metrics

	"github.com/gin-gonic/gin" // Gin web framework
)

// BeginCheckoutHandler snapshots the cart for checkout
func BeginCheckoutHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := sessionOf(c)
		if !ok {
			return
		}
		items, err := svc.Begin(c.Request.Context(), s)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

// PendingCheckoutHandler returns the checkout snapshot and its total
func PendingCheckoutHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := sessionOf(c)
		if !ok {
			return
		}
		items, total, err := svc.Pending(c.Request.Context(), s)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "total": total.StringFixed(2)})
	}
}

// PlaceOrderHandler submits the checkout form
func PlaceOrderHandler(svc *checkout.Service, m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := sessionOf(c)
		if !ok {
			return
		}
		var form checkout.Form // Bind JSON request to struct
		if err := c.ShouldBindJSON(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		order, err := svc.Place(c.Request.Context(), s, form)
		if err != nil {
			respondError(c, err)
			return
		}
		m.RecordOrderPlaced(order.Total)
		c.JSON(http.StatusCreated, order)
	}
}

// LastOrderHandler returns the order just placed in this session
func LastOrderHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := sessionOf(c)
		if !ok {
			return
		}
		order, err := svc.LastOrder(c.Request.Context(), s)
		if err != nil {
			respondError(c, err)
			return
		}
		if order == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "No order placed yet"})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
