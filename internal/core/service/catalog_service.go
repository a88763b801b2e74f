package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// CatalogService serves storefront listings from a short-lived in-process
// cache. Writes through ProductService or CreateCategory invalidate it.
type CatalogService struct {
	stores port.Stores
	log    logrus.FieldLogger
	now    func() time.Time
	ttl    time.Duration

	mu    sync.Mutex
	cache domain.Cached[domain.Catalog]
}

func NewCatalogService(stores port.Stores, log logrus.FieldLogger) *CatalogService {
	return &CatalogService{stores: stores, log: log, now: time.Now, ttl: domain.CatalogTTL}
}

// Catalog returns available products and all categories, refetching once
// the cached copy is older than the TTL.
func (s *CatalogService) Catalog(ctx context.Context) (domain.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache.IsValid(s.now(), s.ttl) {
		return s.cache.Data, nil
	}

	products, err := s.stores.Products.FindWhere(ctx, port.Where{"available": true})
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("list products: %w", err)
	}
	categories, err := s.stores.Categories.FindAll(ctx)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("list categories: %w", err)
	}

	catalog := domain.Catalog{Products: make([]domain.Product, 0, len(products)), Categories: categories}
	for _, p := range products {
		if p.Purchasable() {
			catalog.Products = append(catalog.Products, p)
		}
	}
	s.cache = domain.NewCached(catalog, s.now())
	s.log.WithField("products", len(catalog.Products)).Debug("catalog refreshed")
	return catalog, nil
}

func (s *CatalogService) Invalidate() {
	s.mu.Lock()
	s.cache.Invalidate()
	s.mu.Unlock()
}

func (s *CatalogService) AvailableProducts(ctx context.Context) ([]domain.Product, error) {
	c, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return c.Products, nil
}

func (s *CatalogService) ProductsByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	c, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, p := range c.Products {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

// Search matches term case-insensitively against name and description.
func (s *CatalogService) Search(ctx context.Context, term string) ([]domain.Product, error) {
	c, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return c.Products, nil
	}

	var out []domain.Product
	for _, p := range c.Products {
		if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.Description), term) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Product reads through to the store so unavailable products still resolve.
func (s *CatalogService) Product(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.stores.Products.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, err)
	}
	return p, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	c, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return c.Categories, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor domain.Actor, name, description string) (domain.Category, error) {
	if err := Require(actor, IsAdmin, "create category"); err != nil {
		return domain.Category{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, fmt.Errorf("category name is required: %w", domain.ErrValidation)
	}

	category := domain.Category{ID: uuid.NewString(), Name: name, Description: description}
	if err := s.stores.Categories.Insert(ctx, category); err != nil {
		return domain.Category{}, fmt.Errorf("create category %q: %w", name, err)
	}
	s.Invalidate()
	return category, nil
}
