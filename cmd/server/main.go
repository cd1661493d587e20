package main

import (
	"context"   // context package is needed for Redis operations
	"errors"    // Error inspection
	"net/http"  // HTTP server
	"os"        // Process signals
	"os/signal" // Graceful shutdown
	"syscall"   // Signal numbers
	"time"      // Shutdown timeout

	"storefront/internal/api"        // Custom package for API handlers
	"storefront/internal/cart"       // Cart ledger
	"storefront/internal/catalog"    // Product catalog
	"storefront/internal/checkout"   // Checkout flow
	"storefront/internal/config"     // Custom package for configuration
	"storefront/internal/db"         // Local store gateway
	"storefront/internal/identity"   // Identity store
	"storefront/internal/metrics"    // Prometheus metrics
	"storefront/internal/middleware" // Custom package for middleware
	"storefront/internal/mockapi"    // Simulated order API
	"storefront/internal/orders"     // Order sink
	"storefront/internal/session"    // Session scopes
	"storefront/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"                                  // Gin web framework
	"github.com/prometheus/client_golang/prometheus"            // Prometheus registry
	"github.com/prometheus/client_golang/prometheus/collectors" // Runtime collectors
	"github.com/redis/go-redis/v9"                              // Redis client
	"github.com/sirupsen/logrus"                                // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	// Setup logger
	if err := utils.SetupLogger(cfg.App.LogLevel, cfg.App.IsProd); err != nil {
		logrus.Fatalf("failed to set up logger: %v", err)
	}

	ctx := context.Background()

	// Open the local store, creating collections on first run
	gateway := db.NewGateway(db.Options{Driver: cfg.DB.Driver, DSN: cfg.DB.DataSource()})
	if _, err := gateway.Open(ctx); err != nil {
		logrus.Fatalf("failed to open local store: %v", err)
	}
	defer gateway.Close()

	// Durable session state lives in Redis when configured, else in the store
	var durable session.Scope = session.NewStoreScope(gateway)
	var catalogOpts []catalog.Option
	if cfg.RedisEnabled() {
		// Setup Redis client
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr, // Redis server address
			Password: cfg.Redis.Pass, // Redis password
			DB:       cfg.Redis.DB,   // Redis database number
		})
		// Test Redis connection
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		durable = session.NewRedisScope(redisClient)
		catalogOpts = append(catalogOpts, catalog.WithCache(utils.NewRedisCache(redisClient), cfg.Cache.TTL))
		logrus.WithField("addr", cfg.Redis.Addr).Info("Redis enabled for sessions and catalog cache")
	}

	// Services
	products := catalog.NewService(gateway, catalogOpts...)
	if _, err := products.SeedOnce(ctx); err != nil {
		logrus.Fatalf("failed to seed catalog: %v", err)
	}
	ledger := cart.NewLedger(gateway, products)
	sink := orders.NewSink(gateway)
	endpoint := mockapi.NewClient(session.NewStoreScope(gateway), cfg.MockAPI.Latency)

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// Sessions lapse with their tokens; expired state is swept in the background
	sessions := session.NewManager(durable, session.NewMemoryScope(), session.WithLifetimes(cfg.JWT.TTL, cfg.JWT.RememberTTL))
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sessions.SweepEvery(sweepCtx, cfg.JWT.SweepEvery)

	// Limit login and registration attempts per client
	authLimiter := middleware.NewRateLimiter(cfg.Auth.RatePerMinute)
	defer authLimiter.Stop()

	// Set Mode to Release if in production
	if cfg.App.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.New()
	r.Use(gin.Recovery())

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	api.RegisterRoutes(r, api.Deps{
		Catalog:  products,
		Identity: identity.NewService(gateway, identity.WithDemoAccounts(cfg.App.DemoAccounts)),
		Sessions: sessions,
		Cart:     ledger,
		Orders:   sink,
		Checkout: checkout.NewService(ledger, sink, endpoint),
		Tokens: api.Tokens{
			Secret:      cfg.JWT.Secret,
			TTL:         cfg.JWT.TTL,
			RememberTTL: cfg.JWT.RememberTTL,
		},
		Metrics:     collector,
		Gatherer:    reg,
		AuthLimiter: authLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithField("port", cfg.App.Port).Info("Server running") // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for an interrupt, then drain in-flight requests
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithField("error", err.Error()).Error("Graceful shutdown failed")
	}
}
