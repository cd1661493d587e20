package domain

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// GuestOwner partitions the cart rows of anonymous shoppers.
const GuestOwner OwnerID = "guest"

// OwnerID is the cart partition key: a user id or the literal "guest".
type OwnerID string

// OwnerOf returns the cart owner for the given identity; nil means guest.
func OwnerOf(u *User) OwnerID {
	if u == nil {
		return GuestOwner
	}
	return OwnerID(strconv.FormatInt(u.ID, 10))
}

// IsGuest reports whether the owner is the anonymous partition.
func (o OwnerID) IsGuest() bool {
	return o == GuestOwner
}

// MarshalJSON writes user owners as numbers and the guest owner as a string.
func (o OwnerID) MarshalJSON() ([]byte, error) {
	if id, err := strconv.ParseInt(string(o), 10, 64); err == nil {
		return []byte(strconv.FormatInt(id, 10)), nil
	}
	return json.Marshal(string(o))
}

// UnmarshalJSON accepts either a number or a string.
func (o *OwnerID) UnmarshalJSON(data []byte) error {
	var id int64
	if err := json.Unmarshal(data, &id); err == nil {
		*o = OwnerID(strconv.FormatInt(id, 10))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*o = OwnerID(s)
	return nil
}

// CartItem Model
type CartItem struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`       // Store-assigned id
	UserID     OwnerID         `gorm:"size:32;index;not null" json:"user_id"`    // Owner partition
	ProductID  int64           `gorm:"index;not null" json:"product_id"`         // References Product
	Quantity   int             `gorm:"not null" json:"quantity"`                 // Always >= 1
	Name       string          `json:"name"`                                     // Snapshot at add time
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"` // Snapshot at add time
	Image      string          `json:"image"`                                    // Snapshot at add time
	ColorName  string          `json:"color_name,omitempty"`
	ColorImage string          `json:"color_image,omitempty"`
}

// TableName keeps the collection name used by the local store.
func (CartItem) TableName() string {
	return "cart"
}

// LineTotal is price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Subtotal sums the line totals of items.
func Subtotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
