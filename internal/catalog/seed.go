package catalog

import (
	"fmt"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// DemoProducts is the fixed set inserted into an empty catalog.
func DemoProducts() []domain.Product {
	return []domain.Product{
		demo(1, "T-Shirt", 120, "Clothing", 10, 101, "Black", "#000"),
		demo(2, "Jeans", 350, "Clothing", 5, 102, "Blue", "#00f"),
		demo(3, "Sneakers", 500, "Shoes", 8, 103, "White", "#fff"),
		demo(4, "Jacket", 700, "Clothing", 4, 104, "Brown", "#964B00"),
		demo(5, "Hat", 80, "Accessories", 15, 105, "Red", "#f00"),
	}
}

func demo(id int64, name string, price int64, category string, stock int, colorID int64, colorName, colorCode string) domain.Product {
	image := fmt.Sprintf("assets/images/%d.jpg", id)
	return domain.Product{
		ID:       id,
		Name:     name,
		Price:    decimal.NewFromInt(price),
		Category: category,
		Image:    image,
		Stock:    stock,
		Colors: []domain.Color{
			{ID: colorID, ColorName: colorName, ColorCode: colorCode, Image: image},
		},
	}
}
