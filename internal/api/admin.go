package api

import (
	"net/http" // HTTP status codes
	"time"     // Clock for stats

	"storefront/internal/catalog" // Product catalog
	"storefront/internal/domain"  // Domain models
	"storefront/internal/orders"  // Order sink

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Prices
)

// ProductRequest is the admin product payload
type ProductRequest struct {
	ID          int64           `json:"id"`                      // Zero assigns a fresh id
	Name        string          `json:"name" binding:"required"` // Product name must be provided
	Price       decimal.Decimal `json:"price"`                   // Unit price
	Category    string          `json:"category"`                // Category label
	Image       string          `json:"image"`                   // Image reference
	Stock       int             `json:"stock" binding:"gte=0"`   // Units in stock
	Description string          `json:"description"`             // Free text
	Colors      []domain.Color  `json:"colors"`                  // Variants
}

func (r ProductRequest) product() *domain.Product {
	return &domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Price:       r.Price,
		Category:    r.Category,
		Image:       r.Image,
		Stock:       r.Stock,
		Description: r.Description,
		Colors:      r.Colors,
	}
}

// CreateProductHandler adds a product, or overwrites the one with the same id
func CreateProductHandler(products *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProductRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		p := req.product()
		if err := products.Save(c.Request.Context(), p); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// UpdateProductHandler overwrites the product named in the path
func UpdateProductHandler(products *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		var req ProductRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		req.ID = id // Path wins over body
		p := req.product()
		if err := products.Save(c.Request.Context(), p); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// DeleteProductHandler removes a product
func DeleteProductHandler(products *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		if err := products.Delete(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ListOrdersHandler lists every placed order, newest first
func ListOrdersHandler(sink *orders.Sink) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := sink.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// StatsHandler summarizes the last 30 days of orders
func StatsHandler(sink *orders.Sink, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := sink.Stats(c.Request.Context(), now())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"revenue":             stats.Revenue.StringFixed(2),
			"orders":              stats.Orders,
			"average_order_value": stats.AverageOrderValue.StringFixed(2),
		})
	}
}
