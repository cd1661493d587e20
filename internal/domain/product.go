package domain

import "github.com/shopspring/decimal"

// Color is a purchasable variant of a product
type Color struct {
	ID        int64  `json:"id"`
	ColorName string `json:"color_name"`
	ColorCode string `json:"color_code"`
	Image     string `json:"image"`
}

// Product Model
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement:false" json:"id"` // Explicit id, never store-assigned
	Name        string          `gorm:"not null" json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Category    string          `gorm:"size:191;index" json:"category"`
	Image       string          `json:"image"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	Description string          `json:"description,omitempty"`
	Colors      []Color         `gorm:"serializer:json" json:"colors,omitempty"` // Stored as a JSON column
}

// Color returns the variant with the given id.
func (p *Product) Color(id int64) (Color, bool) {
	for _, c := range p.Colors {
		if c.ID == id {
			return c, true
		}
	}
	return Color{}, false
}
