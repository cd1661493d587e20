package api

import (
	"net/http" // HTTP status codes

	"storefront/internal/cart"    // Cart ledger
	"storefront/internal/domain"  // Domain models
	"storefront/internal/metrics" // Storefront metrics

	"github.com/gin-gonic/gin" // Gin web framework
)

// AddToCartRequest represents an add-to-cart request
type AddToCartRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"` // Product to add
	Quantity  int   `json:"quantity"`                           // Defaults to 1
	ColorID   int64 `json:"color_id"`                           // Optional variant
}

// UpdateCartItemRequest sets a line's quantity
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"` // Values below 1 count as 1
}

// CartResponse is the shopper's cart with its totals
type CartResponse struct {
	Items    []domain.CartItem `json:"items"`
	Subtotal string            `json:"subtotal"`
	Count    int               `json:"count"`
}

// GetCartHandler returns the shopper's cart
func GetCartHandler(ledger *cart.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := sessionOf(c)
		if !ok {
			return
		}
		items, err := ledger.List(c.Request.Context(), s)
		if err != nil {
			respondError(c, err)
			return
		}
		count := 0
		for _, item := range items {
			count += item.Quantity
		}
		c.JSON(http.StatusOK, CartResponse{
			Items:    items,
			Subtotal: domain.Subtotal(items).StringFixed(2),
			Count:    count,
		})
	}
}

// AddToCartHandler adds a product to the shopper's cart
func AddToCartHandler(ledger *cart.Ledger, m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := sessionOf(c)
		if !ok {
			return
		}
		var req AddToCartRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var opts []cart.AddOption
		if req.ColorID != 0 {
			opts = append(opts, cart.WithColor(req.ColorID))
		}
		item, err := ledger.Add(c.Request.Context(), s, req.ProductID, req.Quantity, opts...)
		if err != nil {
			respondError(c, err)
			return
		}
		m.RecordCartAdd(max(req.Quantity, 1))
		c.JSON(http.StatusOK, item)
	}
}

// UpdateCartItemHandler changes the quantity of one line
func UpdateCartItemHandler(ledger *cart.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := sessionOf(c)
		if !ok {
			return
		}
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		var req UpdateCartItemRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		item, err := ledger.UpdateQuantity(c.Request.Context(), s, id, *req.Quantity)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// RemoveCartItemHandler deletes one line; unknown ids are ignored
func RemoveCartItemHandler(ledger *cart.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := sessionOf(c)
		if !ok {
			return
		}
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		if err := ledger.Remove(c.Request.Context(), s, id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ClearCartHandler empties the shopper's cart
func ClearCartHandler(ledger *cart.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := sessionOf(c)
		if !ok {
			return
		}
		if err := ledger.Clear(c.Request.Context(), s); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// CartCountHandler returns the number of units in the cart
func CartCountHandler(ledger *cart.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := sessionOf(c)
		if !ok {
			return
		}
		count, err := ledger.Count(c.Request.Context(), s)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}
