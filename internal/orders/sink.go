// Package orders is the append-only order sink.
package orders

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/db"
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// StatsWindow is how far back Stats looks.
const StatsWindow = 30 * 24 * time.Hour

// Stats summarizes recent orders.
type Stats struct {
	Revenue           decimal.Decimal `json:"revenue"`
	Orders            int             `json:"orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// Sink stores placed orders.
type Sink struct {
	store *db.Gateway
}

func NewSink(store *db.Gateway) *Sink {
	return &Sink{store: store}
}

// Save appends order and returns its store-assigned id. The total is taken
// as given and items are not checked against the catalog.
func (s *Sink) Save(ctx context.Context, order *domain.Order) (int64, error) {
	conn, err := s.store.Open(ctx)
	if err != nil {
		return 0, err
	}
	order.ID = 0
	if order.Date.IsZero() {
		order.Date = time.Now()
	}
	order.Date = order.Date.UTC()
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	if err := conn.WithContext(ctx).Create(order).Error; err != nil {
		return 0, fmt.Errorf("saving order %s: %w", order.OrderNumber, err)
	}
	logrus.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.Total.StringFixed(2),
	}).Info("Order saved")
	return order.ID, nil
}

// List returns every order, newest first.
func (s *Sink) List(ctx context.Context) ([]domain.Order, error) {
	conn, err := s.store.Open(ctx)
	if err != nil {
		return nil, err
	}
	orders := []domain.Order{}
	if err := conn.WithContext(ctx).Order("date DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

// Stats reports revenue, order count and average order value for orders
// dated within StatsWindow before now.
func (s *Sink) Stats(ctx context.Context, now time.Time) (Stats, error) {
	all, err := s.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Revenue: decimal.Zero, AverageOrderValue: decimal.Zero}
	for _, o := range all {
		if now.Sub(o.Date) > StatsWindow {
			continue
		}
		stats.Revenue = stats.Revenue.Add(o.Total)
		stats.Orders++
	}
	if stats.Orders > 0 {
		stats.AverageOrderValue = stats.Revenue.Div(decimal.NewFromInt(int64(stats.Orders))).Round(2)
	}
	return stats, nil
}
