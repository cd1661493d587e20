package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatusPending is the status every order starts (and stays) in.
const OrderStatusPending = "pending"

// Customer contact details captured at checkout
type Customer struct {
	FullName       string  `json:"full_name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	SecondaryPhone *string `json:"secondary_phone"`
}

// Location is a picked delivery point
type Location struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Shipping destination captured at checkout
type Shipping struct {
	Governorate string    `json:"governorate"`
	City        string    `json:"city"`
	Address     string    `json:"address"`
	Notes       string    `json:"notes"`
	Location    *Location `json:"location"`
}

// Order Model (append-only)
type Order struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string          `gorm:"size:32;index;not null" json:"order_number"` // "ORD-" + 6 digits
	Date        time.Time       `gorm:"not null" json:"date"`
	Status      string          `gorm:"size:32;default:pending" json:"status"`
	Customer    Customer        `gorm:"serializer:json" json:"customer"`
	Shipping    Shipping        `gorm:"serializer:json" json:"shipping"`
	Items       []CartItem      `gorm:"serializer:json" json:"items"` // Cart snapshots at checkout
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
}
