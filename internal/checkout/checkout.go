// Package checkout turns a cart into a placed order.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/mockapi"
	"storefront/internal/session"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	itemsKey = "checkoutItems" // durable scope
	orderKey = "currentOrder"  // tab scope
)

const defaultNotes = "No notes"

// Shopper is the session a checkout runs in. *session.Session satisfies it.
type Shopper interface {
	cart.Identity
	Durable() session.Scope
	Tab() session.Scope
}

// CartReader lists the shopper's cart. *cart.Ledger satisfies it.
type CartReader interface {
	List(ctx context.Context, who cart.Identity) ([]domain.CartItem, error)
}

// OrderSink stores placed orders. *orders.Sink satisfies it.
type OrderSink interface {
	Save(ctx context.Context, order *domain.Order) (int64, error)
}

// Endpoint receives placed orders. *mockapi.Client satisfies it.
type Endpoint interface {
	Post(ctx context.Context, endpoint string, payload any) (*mockapi.Ack, error)
}

// Form is the customer and shipping data entered at checkout.
type Form struct {
	FullName       string           `json:"full_name" validate:"required"`
	Email          string           `json:"email" validate:"required,email"`
	Phone          string           `json:"phone" validate:"required"`
	SecondaryPhone string           `json:"secondary_phone"`
	Governorate    string           `json:"governorate" validate:"required"`
	City           string           `json:"city" validate:"required"`
	Address        string           `json:"address" validate:"required"`
	Notes          string           `json:"notes"`
	Location       *domain.Location `json:"location"`
}

// Service runs checkouts.
type Service struct {
	cart     CartReader
	sink     OrderSink
	endpoint Endpoint
	validate *validator.Validate
	now      func() time.Time
	intN     func(int) int
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the clock used to date orders.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand replaces the source of order-number digits.
func WithRand(intN func(int) int) Option {
	return func(s *Service) { s.intN = intN }
}

func NewService(cart CartReader, sink OrderSink, endpoint Endpoint, opts ...Option) *Service {
	s := &Service{
		cart:     cart,
		sink:     sink,
		endpoint: endpoint,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
		intN:     rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin snapshots the shopper's cart for checkout.
func (s *Service) Begin(ctx context.Context, who Shopper) ([]domain.CartItem, error) {
	items, err := s.cart.List(ctx, who)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding checkout items: %w", err)
	}
	if err := who.Durable().Set(ctx, itemsKey, string(b)); err != nil {
		return nil, err
	}
	return items, nil
}

// Pending returns the snapshot taken by Begin and its total.
func (s *Service) Pending(ctx context.Context, who Shopper) ([]domain.CartItem, decimal.Decimal, error) {
	items, err := s.snapshot(ctx, who)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return items, domain.Subtotal(items), nil
}

// Place validates form, submits the order built from the snapshot and
// records it.
func (s *Service) Place(ctx context.Context, who Shopper, form Form) (*domain.Order, error) {
	if err := s.validate.Struct(form); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	items, err := s.snapshot(ctx, who)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	order := &domain.Order{
		OrderNumber: fmt.Sprintf("ORD-%d", 100000+s.intN(900000)),
		Date:        s.now().UTC(),
		Status:      domain.OrderStatusPending,
		Customer: domain.Customer{
			FullName: form.FullName,
			Email:    form.Email,
			Phone:    form.Phone,
		},
		Shipping: domain.Shipping{
			Governorate: form.Governorate,
			City:        form.City,
			Address:     form.Address,
			Notes:       form.Notes,
			Location:    form.Location,
		},
		Items: items,
		Total: domain.Subtotal(items),
	}
	if phone := strings.TrimSpace(form.SecondaryPhone); phone != "" {
		order.Customer.SecondaryPhone = &phone
	}
	if strings.TrimSpace(order.Shipping.Notes) == "" {
		order.Shipping.Notes = defaultNotes
	}

	ack, err := s.endpoint.Post(ctx, mockapi.OrdersEndpoint, order)
	if err != nil {
		return nil, err
	}
	if !ack.Success && ack.OrderID == "" {
		return nil, errors.New("order was not accepted")
	}
	if _, err := s.sink.Save(ctx, order); err != nil {
		// The endpoint already holds the order; only the local record is missing.
		logrus.WithFields(logrus.Fields{
			"order_number": order.OrderNumber,
			"error":        err.Error(),
		}).Error("Order submitted but not recorded locally")
		return nil, fmt.Errorf("recording submitted order %s: %w", order.OrderNumber, err)
	}

	b, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("encoding order: %w", err)
	}
	if err := who.Tab().Set(ctx, orderKey, string(b)); err != nil {
		return nil, err
	}
	if err := who.Durable().Delete(ctx, itemsKey); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"order_number": order.OrderNumber,
		"items":        len(items),
		"total":        order.Total.StringFixed(2),
	}).Info("Order placed")
	return order, nil
}

// LastOrder returns the order most recently placed in this session, or nil.
func (s *Service) LastOrder(ctx context.Context, who Shopper) (*domain.Order, error) {
	raw, ok, err := who.Tab().Get(ctx, orderKey)
	if err != nil || !ok {
		return nil, err
	}
	var order *domain.Order
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		logrus.WithField("error", err.Error()).Warn("Ignoring malformed last order")
		return nil, nil
	}
	return order, nil
}

func (s *Service) snapshot(ctx context.Context, who Shopper) ([]domain.CartItem, error) {
	raw, ok, err := who.Durable().Get(ctx, itemsKey)
	if err != nil {
		return nil, err
	}
	items := []domain.CartItem{}
	if !ok {
		return items, nil
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logrus.WithField("error", err.Error()).Warn("Ignoring malformed checkout items")
		return []domain.CartItem{}, nil
	}
	return items, nil
}
