package db

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Migrate creates or upgrades the local store schema and returns the opened gateway
func Migrate(ctx context.Context, opts Options) *Gateway {
	gateway := NewGateway(opts)
	// Open creates missing collections when the stored version is behind
	if _, err := gateway.Open(ctx); err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	version, err := gateway.StoredVersion(ctx)
	if err != nil {
		logrus.Fatalf("failed to read schema version: %v", err)
	}
	logrus.WithField("version", version).Info("Migration completed.") // Log successful migration
	return gateway
}
