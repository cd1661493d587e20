// Package catalog reads and maintains the product collection.
package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const productsCacheKey = "catalog:products"

// Sort orders accepted by Search.
const (
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortNameAsc   = "name-asc"
	SortNameDesc  = "name-desc"
)

// Cache holds the full product list between reads. utils.RedisCache satisfies it.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Filter narrows Search results. Zero fields match everything.
type Filter struct {
	Category string `form:"category"`
	Color    string `form:"color"`
	Query    string `form:"q"`
	Sort     string `form:"sort"`
}

// Service is the product catalog.
type Service struct {
	store    *db.Gateway
	cache    Cache
	cacheTTL time.Duration
	ids      *utils.IDSequence
}

// Option configures a Service.
type Option func(*Service)

// WithCache reads product lists through cache for ttl.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// NewService returns a catalog over store.
func NewService(store *db.Gateway, opts ...Option) *Service {
	s := &Service{store: store, ids: utils.NewIDSequence()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every product, or only those whose category equals category
// ignoring case.
func (s *Service) List(ctx context.Context, category string) ([]domain.Product, error) {
	return s.Search(ctx, Filter{Category: category})
}

// Search filters and sorts the product list.
func (s *Service) Search(ctx context.Context, f Filter) ([]domain.Product, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(f.Category)
	query := strings.ToLower(strings.TrimSpace(f.Query))
	color := strings.ToLower(strings.TrimSpace(f.Color))

	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Category), query) {
			continue
		}
		if color != "" && !hasColor(p, color) {
			continue
		}
		out = append(out, p)
	}
	sortProducts(out, f.Sort)
	return out, nil
}

func hasColor(p domain.Product, needle string) bool {
	for _, c := range p.Colors {
		if strings.Contains(strings.ToLower(c.ColorName), needle) {
			return true
		}
	}
	return false
}

func sortProducts(products []domain.Product, order string) {
	switch order {
	case SortPriceAsc:
		slices.SortStableFunc(products, func(a, b domain.Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(products, func(a, b domain.Product) int { return b.Price.Cmp(a.Price) })
	case SortNameAsc:
		slices.SortStableFunc(products, func(a, b domain.Product) int { return cmp.Compare(a.Name, b.Name) })
	case SortNameDesc:
		slices.SortStableFunc(products, func(a, b domain.Product) int { return cmp.Compare(b.Name, a.Name) })
	}
}

// Colors returns the distinct color names across all products, sorted.
func (s *Service) Colors(ctx context.Context) ([]string, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	names := []string{}
	for _, p := range all {
		for _, c := range p.Colors {
			name := strings.TrimSpace(c.ColorName)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Get returns the product with id, or nil when there is none.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	conn, err := s.store.Open(ctx)
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	if err := conn.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("loading product %d: %w", id, err)
	}
	if len(products) == 0 {
		return nil, nil
	}
	return &products[0], nil
}

// Save inserts or fully overwrites p. A zero id is replaced by a fresh one.
func (s *Service) Save(ctx context.Context, p *domain.Product) error {
	if p == nil || strings.TrimSpace(p.Name) == "" || p.Price.IsNegative() || p.Stock < 0 {
		return domain.ErrInvalidInput
	}
	conn, err := s.store.Open(ctx)
	if err != nil {
		return err
	}
	// A generated id never overwrites an existing product.
	tx := conn.WithContext(ctx)
	if p.ID == 0 {
		p.ID = s.ids.Next()
	} else {
		tx = tx.Clauses(clause.OnConflict{UpdateAll: true})
	}
	if err := tx.Create(p).Error; err != nil {
		return fmt.Errorf("saving product %d: %w", p.ID, err)
	}
	logrus.WithFields(logrus.Fields{
		"product_id": p.ID,
		"name":       p.Name,
	}).Info("Product saved")
	s.invalidate(ctx)
	return nil
}

// Delete removes the product with id. Missing ids are not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	conn, err := s.store.Open(ctx)
	if err != nil {
		return err
	}
	res := conn.WithContext(ctx).Delete(&domain.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting product %d: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		logrus.WithField("product_id", id).Info("Product deleted")
	}
	s.invalidate(ctx)
	return nil
}

// SeedOnce fills an empty catalog with the demo products. It reports whether
// anything was inserted.
func (s *Service) SeedOnce(ctx context.Context) (bool, error) {
	conn, err := s.store.Open(ctx)
	if err != nil {
		return false, err
	}
	seeded := false
	err = conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Product{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		products := DemoProducts()
		if err := tx.Create(&products).Error; err != nil {
			return err
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seeding catalog: %w", err)
	}
	if seeded {
		logrus.WithField("count", len(DemoProducts())).Info("Catalog seeded with demo products")
		s.invalidate(ctx)
	}
	return seeded, nil
}

// all loads every product in id order, through the cache when one is set.
func (s *Service) all(ctx context.Context) ([]domain.Product, error) {
	if s.cache != nil {
		var cached []domain.Product
		found, err := s.cache.Get(ctx, productsCacheKey, &cached)
		if err != nil {
			logrus.WithField("error", err.Error()).Warn("Catalog cache read failed")
		} else if found {
			return cached, nil
		}
	}
	conn, err := s.store.Open(ctx)
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	if err := conn.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, productsCacheKey, products, s.cacheTTL); err != nil {
			logrus.WithField("error", err.Error()).Warn("Catalog cache write failed")
		}
	}
	return products, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, productsCacheKey); err != nil {
		logrus.WithField("error", err.Error()).Warn("Catalog cache invalidation failed")
	}
}
