package api

import (
	"time" // Clock

	"storefront/internal/cart"       // Cart ledger
	"storefront/internal/catalog"    // Product catalog
	"storefront/internal/checkout"   // Checkout flow
	"storefront/internal/identity"   // Identity store
	"storefront/internal/metrics"    // Storefront metrics
	"storefront/internal/middleware" // Gin middleware
	"storefront/internal/orders"     // Order sink
	"storefront/internal/session"    // Session scopes

	"github.com/gin-gonic/gin"                       // Gin web framework
	"github.com/prometheus/client_golang/prometheus" // Metrics registry
)

// Deps are the services behind the HTTP API
type Deps struct {
	Catalog     *catalog.Service
	Identity    *identity.Service
	Sessions    *session.Manager
	Cart        *cart.Ledger
	Orders      *orders.Sink
	Checkout    *checkout.Service
	Tokens      Tokens
	Metrics     *metrics.Collector      // Optional
	Gatherer    prometheus.Gatherer     // Serves /metrics when set
	AuthLimiter *middleware.RateLimiter // Optional limiter on login and register
	Now         func() time.Time
}

// RegisterRoutes mounts every storefront route on r
func RegisterRoutes(r *gin.Engine, d Deps) {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Metrics != nil {
		r.Use(middleware.MetricsMiddleware(d.Metrics))
	}
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer))) // Prometheus scrape endpoint
	}

	// Every other route runs in a session, anonymous when no token is sent
	sessions := middleware.SessionMiddleware(d.Tokens.Secret, d.Tokens.TTL, d.Sessions)

	// Auth routes
	auth := r.Group("/auth", sessions)
	limited := []gin.HandlerFunc{}
	if d.AuthLimiter != nil {
		limited = append(limited, d.AuthLimiter.Middleware())
	}
	auth.POST("/register", append(limited, RegisterHandler(d.Identity, d.Sessions, d.Tokens, d.Metrics))...) // Registration endpoint
	auth.POST("/login", append(limited, LoginHandler(d.Identity, d.Sessions, d.Tokens, d.Metrics))...)       // Login endpoint
	auth.POST("/logout", LogoutHandler())                                                                    // Logout endpoint
	auth.GET("/me", MeHandler())                                                                             // Current identity

	// Catalog routes
	products := r.Group("/products", sessions)
	products.GET("", ListProductsHandler(d.Catalog))   // List and search products
	products.GET("/colors", ColorsHandler(d.Catalog))  // Distinct colors
	products.GET("/:id", GetProductHandler(d.Catalog)) // Product details

	// Cart routes
	cartGroup := r.Group("/cart", sessions)
	cartGroup.GET("", GetCartHandler(d.Cart))               // Cart contents
	cartGroup.POST("", AddToCartHandler(d.Cart, d.Metrics)) // Add to cart
	cartGroup.DELETE("", ClearCartHandler(d.Cart))          // Empty the cart
	cartGroup.GET("/count", CartCountHandler(d.Cart))       // Badge count
	cartGroup.PATCH("/:id", UpdateCartItemHandler(d.Cart))  // Change quantity
	cartGroup.DELETE("/:id", RemoveCartItemHandler(d.Cart)) // Remove a line

	// Checkout routes
	checkoutGroup := r.Group("/checkout", sessions)
	checkoutGroup.POST("", BeginCheckoutHandler(d.Checkout))                // Snapshot the cart
	checkoutGroup.GET("", PendingCheckoutHandler(d.Checkout))               // Review the snapshot
	checkoutGroup.POST("/orders", PlaceOrderHandler(d.Checkout, d.Metrics)) // Place the order
	checkoutGroup.GET("/orders/last", LastOrderHandler(d.Checkout))         // Thank-you page data

	// Admin routes (admin only)
	admin := r.Group("/admin", sessions, middleware.AdminOnlyMiddleware())
	admin.POST("/products", CreateProductHandler(d.Catalog))       // Create or overwrite a product
	admin.PUT("/products/:id", UpdateProductHandler(d.Catalog))    // Overwrite a product
	admin.DELETE("/products/:id", DeleteProductHandler(d.Catalog)) // Delete a product
	admin.GET("/orders", ListOrdersHandler(d.Orders))              // All orders
	admin.GET("/stats", StatsHandler(d.Orders, d.Now))             // 30-day stats
}
