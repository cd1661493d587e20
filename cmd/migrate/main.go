package main

import (
	"context" // Context for store operations

	"storefront/internal/catalog" // Product catalog
	"storefront/internal/config"  // Custom import path (Config)
	"storefront/internal/db"      // Custom import path (Database)
	"storefront/internal/utils"   // Logger setup

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if err := utils.SetupLogger(cfg.App.LogLevel, cfg.App.IsProd); err != nil {
		logrus.Fatalf("failed to set up logger: %v", err)
	}

	ctx := context.Background()
	gateway := db.Migrate(ctx, db.Options{Driver: cfg.DB.Driver, DSN: cfg.DB.DataSource()})
	defer gateway.Close()

	// Seed the demo catalog on a fresh store
	seeded, err := catalog.NewService(gateway).SeedOnce(ctx)
	if err != nil {
		logrus.Fatalf("failed to seed catalog: %v", err)
	}
	logrus.WithField("seeded", seeded).Info("Catalog ready")
}
