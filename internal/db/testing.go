package db

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// OpenTest returns an opened gateway over a private in-memory SQLite
// database named after the test. The handle is closed on cleanup.
func OpenTest(t testing.TB) *Gateway {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gateway := NewGateway(Options{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	if _, err := gateway.Open(context.Background()); err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = gateway.Close() })
	return gateway
}
