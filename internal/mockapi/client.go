// Package mockapi simulates the remote order API. Posted orders are kept in
// a JSON list in local storage.
package mockapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"storefront/internal/domain"

	"github.com/sirupsen/logrus"
)

// OrdersEndpoint is the only endpoint the mock implements.
const OrdersEndpoint = "/orders"

const ordersKey = "orders"

// Storage is where posted payloads are kept. session.Scope implementations
// satisfy it.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Ack is the endpoint's reply.
type Ack struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
}

// Client posts to the simulated API.
type Client struct {
	storage Storage
	latency time.Duration
	mu      sync.Mutex
}

// NewClient returns a client that waits latency before each reply.
func NewClient(storage Storage, latency time.Duration) *Client {
	return &Client{storage: storage, latency: latency}
}

// Post sends payload to endpoint.
func (c *Client) Post(ctx context.Context, endpoint string, payload any) (*Ack, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if endpoint != OrdersEndpoint {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotImplemented, endpoint)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	var ref struct {
		OrderNumber string `json:"order_number"`
	}
	_ = json.Unmarshal(raw, &ref) // Non-object payloads have no order number

	c.mu.Lock()
	defer c.mu.Unlock()
	list, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	list = append(list, raw)
	b, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encoding orders: %w", err)
	}
	if err := c.storage.Set(ctx, ordersKey, string(b)); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"endpoint":     endpoint,
		"order_number": ref.OrderNumber,
		"stored":       len(list),
	}).Info("Mock API accepted order")
	return &Ack{Success: true, OrderID: ref.OrderNumber}, nil
}

// Orders returns every payload posted to OrdersEndpoint, oldest first.
func (c *Client) Orders(ctx context.Context) ([]json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

func (c *Client) load(ctx context.Context) ([]json.RawMessage, error) {
	raw, ok, err := c.storage.Get(ctx, ordersKey)
	if err != nil {
		return nil, err
	}
	list := []json.RawMessage{}
	if !ok {
		return list, nil
	}
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		logrus.WithField("error", err.Error()).Warn("Discarding malformed mock order list")
		return []json.RawMessage{}, nil
	}
	return list, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
