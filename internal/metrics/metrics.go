// Package metrics collects storefront counters for Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Collector records storefront activity. A nil *Collector discards
// everything.
type Collector struct {
	logins        *prometheus.CounterVec
	registrations prometheus.Counter
	cartUnits     prometheus.Counter
	ordersPlaced  prometheus.Counter
	orderRevenue  prometheus.Counter
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_registrations_total",
			Help: "Accounts registered.",
		}),
		cartUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_cart_units_added_total",
			Help: "Units added to carts.",
		}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Orders placed at checkout.",
		}),
		orderRevenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_order_revenue_total",
			Help: "Sum of placed order totals.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.logins,
		c.registrations,
		c.cartUnits,
		c.ordersPlaced,
		c.orderRevenue,
		c.requests,
		c.latency,
	)

	return c
}

// RecordLogin counts a login attempt.
func (c *Collector) RecordLogin(success bool) {
	if c == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRegistration() {
	if c == nil {
		return
	}
	c.registrations.Inc()
}

// RecordCartAdd counts units put in a cart.
func (c *Collector) RecordCartAdd(quantity int) {
	if c == nil {
		return
	}
	c.cartUnits.Add(float64(quantity))
}

// RecordOrderPlaced counts an order and its total.
func (c *Collector) RecordOrderPlaced(total decimal.Decimal) {
	if c == nil {
		return
	}
	c.ordersPlaced.Inc()
	c.orderRevenue.Add(total.InexactFloat64())
}

// RecordRequest counts one served HTTP request.
func (c *Collector) RecordRequest(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the Prometheus scrape endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
