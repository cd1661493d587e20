package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"storefront/internal/catalog" // Product catalog

	"github.com/gin-gonic/gin" // Gin web framework
)

// parseID reads a positive int64 path parameter
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// ListProductsHandler lists products, optionally filtered by category,
// color or search text and sorted
func ListProductsHandler(products *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter catalog.Filter // Bind query string to filter
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query"})
			return
		}
		list, err := products.Search(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// ColorsHandler lists every color name on offer
func ColorsHandler(products *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		colors, err := products.Colors(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, colors)
	}
}

// GetProductHandler returns one product
func GetProductHandler(products *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		product, err := products.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		// Absent products are a 404, not an error
		if product == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
