// Package cart keeps each shopper's cart lines in the local store. Lines are
// partitioned by owner: the logged-in user's id, or "guest".
package cart

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/db"
	"storefront/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Identity resolves the shopper behind a request. *session.Session
// satisfies it.
type Identity interface {
	Current(ctx context.Context) (*domain.User, error)
}

// ProductLookup finds products to snapshot. *catalog.Service satisfies it.
type ProductLookup interface {
	Get(ctx context.Context, id int64) (*domain.Product, error)
}

// Ledger is the cart store.
type Ledger struct {
	store    *db.Gateway
	products ProductLookup
}

// NewLedger returns a ledger over store.
func NewLedger(store *db.Gateway, products ProductLookup) *Ledger {
	return &Ledger{store: store, products: products}
}

type addOptions struct {
	colorID int64
}

// AddOption customizes Add.
type AddOption func(*addOptions)

// WithColor snapshots the product variant with colorID on a new line.
func WithColor(colorID int64) AddOption {
	return func(o *addOptions) { o.colorID = colorID }
}

// Owner returns the cart partition of who.
func Owner(ctx context.Context, who Identity) (domain.OwnerID, error) {
	user, err := who.Current(ctx)
	if err != nil {
		return "", err
	}
	return domain.OwnerOf(user), nil
}

// Add puts quantity units of productID in the shopper's cart. An existing
// line for the product is incremented; otherwise a snapshot line is
// inserted. Quantities below 1 count as 1.
func (l *Ledger) Add(ctx context.Context, who Identity, productID int64, quantity int, opts ...AddOption) (*domain.CartItem, error) {
	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}
	quantity = max(quantity, 1)

	owner, err := Owner(ctx, who)
	if err != nil {
		return nil, err
	}
	product, err := l.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	var color *domain.Color
	if o.colorID != 0 {
		c, ok := product.Color(o.colorID)
		if !ok {
			return nil, fmt.Errorf("%w: product %d has no color %d", domain.ErrInvalidInput, productID, o.colorID)
		}
		color = &c
	}

	conn, err := l.store.Open(ctx)
	if err != nil {
		return nil, err
	}
	var item domain.CartItem
	err = conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lines []domain.CartItem
		if err := tx.Where("user_id = ? AND product_id = ?", owner, productID).Order("id").Limit(1).Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) > 0 {
			item = lines[0]
			item.Quantity += quantity
			return tx.Model(&item).Update("quantity", item.Quantity).Error
		}
		item = domain.CartItem{
			UserID:    owner,
			ProductID: product.ID,
			Quantity:  quantity,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image,
		}
		if color != nil {
			item.ColorName = color.ColorName
			item.ColorImage = color.Image
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, fmt.Errorf("adding product %d to cart: %w", productID, err)
	}
	logrus.WithFields(logrus.Fields{
		"owner":      owner,
		"product_id": productID,
		"quantity":   item.Quantity,
	}).Info("Cart line updated")
	return &item, nil
}

// List returns the shopper's lines in insertion order.
func (l *Ledger) List(ctx context.Context, who Identity) ([]domain.CartItem, error) {
	owner, err := Owner(ctx, who)
	if err != nil {
		return nil, err
	}
	conn, err := l.store.Open(ctx)
	if err != nil {
		return nil, err
	}
	items := []domain.CartItem{}
	if err := conn.WithContext(ctx).Where("user_id = ?", owner).Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("listing cart: %w", err)
	}
	return items, nil
}

// UpdateQuantity sets the quantity of one of the shopper's lines. Quantities
// below 1 count as 1.
func (l *Ledger) UpdateQuantity(ctx context.Context, who Identity, itemID int64, quantity int) (*domain.CartItem, error) {
	quantity = max(quantity, 1)
	owner, err := Owner(ctx, who)
	if err != nil {
		return nil, err
	}
	conn, err := l.store.Open(ctx)
	if err != nil {
		return nil, err
	}
	var item domain.CartItem
	err = conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lines []domain.CartItem
		if err := tx.Where("id = ?", itemID).Limit(1).Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrCartItemNotFound
		}
		item = lines[0]
		if item.UserID != owner {
			return domain.ErrCartItemNotOwned
		}
		item.Quantity = quantity
		return tx.Model(&item).Update("quantity", quantity).Error
	})
	if errors.Is(err, domain.ErrCartItemNotFound) || errors.Is(err, domain.ErrCartItemNotOwned) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("updating cart item %d: %w", itemID, err)
	}
	return &item, nil
}

// Remove deletes one of the shopper's lines. Unknown ids and lines of other
// shoppers are left alone without error.
func (l *Ledger) Remove(ctx context.Context, who Identity, itemID int64) error {
	owner, err := Owner(ctx, who)
	if err != nil {
		return err
	}
	conn, err := l.store.Open(ctx)
	if err != nil {
		return err
	}
	if err := conn.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, owner).Delete(&domain.CartItem{}).Error; err != nil {
		return fmt.Errorf("removing cart item %d: %w", itemID, err)
	}
	return nil
}

// Clear empties the shopper's cart. Other carts are untouched.
func (l *Ledger) Clear(ctx context.Context, who Identity) error {
	owner, err := Owner(ctx, who)
	if err != nil {
		return err
	}
	conn, err := l.store.Open(ctx)
	if err != nil {
		return err
	}
	res := conn.WithContext(ctx).Where("user_id = ?", owner).Delete(&domain.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("clearing cart: %w", res.Error)
	}
	logrus.WithFields(logrus.Fields{
		"owner": owner,
		"lines": res.RowsAffected,
	}).Info("Cart cleared")
	return nil
}

// Count is the total number of units in the shopper's cart.
func (l *Ledger) Count(ctx context.Context, who Identity) (int, error) {
	owner, err := Owner(ctx, who)
	if err != nil {
		return 0, err
	}
	conn, err := l.store.Open(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := conn.WithContext(ctx).Model(&domain.CartItem{}).
		Where("user_id = ?", owner).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("counting cart: %w", err)
	}
	return int(total), nil
}
