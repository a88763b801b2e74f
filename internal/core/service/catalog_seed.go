package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type sampleProduct struct {
	name, description, price, category string
}

var defaultCategories = []domain.Category{
	{Name: "Maquillaje Facial", Description: "Productos para el rostro: bases, correctores, polvos"},
	{Name: "Maquillaje de Ojos", Description: "Sombras, delineadores, máscaras de pestañas"},
	{Name: "Maquillaje de Labios", Description: "Labiales, brillos, delineadores de labios"},
	{Name: "Cuidado de la Piel", Description: "Cremas, limpiadores, tratamientos faciales"},
	{Name: "Herramientas de Maquillaje", Description: "Brochas, esponjas, aplicadores"},
	{Name: "Fragancias", Description: "Perfumes y colonias"},
	{Name: "Accesorios", Description: "Bolsos, estuches, organizadores de maquillaje"},
}

var sampleProducts = []sampleProduct{
	{"Base de Maquillaje Luxury", "Base de larga duración con acabado natural", "45.99", "Maquillaje Facial"},
	{"Paleta de Sombras Premium", "12 sombras con pigmentos de alta calidad", "32.50", "Maquillaje de Ojos"},
	{"Labial Mate de Larga Duración", "Labial mate que no se transfiere", "18.75", "Maquillaje de Labios"},
	{"Crema Hidratante Anti-Edad", "Crema con ácido hialurónico y vitamina C", "65.00", "Cuidado de la Piel"},
	{"Set de Brochas Profesionales", "12 brochas de alta calidad para maquillaje", "89.99", "Herramientas de Maquillaje"},
	{"Perfume Signature", "Fragancia exclusiva de la casa", "125.00", "Fragancias"},
}

// SeedCatalog inserts the starter categories and sample products that are
// missing, matching by name. Safe to run on every start.
func (s *CatalogService) SeedCatalog(ctx context.Context) error {
	categoryIDs := make(map[string]string, len(defaultCategories))
	for _, c := range defaultCategories {
		id, err := s.seedCategory(ctx, c)
		if err != nil {
			return err
		}
		categoryIDs[c.Name] = id
	}

	added := 0
	for _, sp := range sampleProducts {
		existing, err := s.stores.Products.FindWhere(ctx, port.Where{"name": sp.name})
		if err != nil {
			return fmt.Errorf("seed product %q: %w", sp.name, err)
		}
		if len(existing) > 0 {
			continue
		}

		categoryID := categoryIDs[sp.category]
		p := domain.Product{
			ID:          uuid.NewString(),
			Name:        sp.name,
			Description: sp.description,
			Price:       decimal.RequireFromString(sp.price),
			Available:   true,
			CategoryID:  &categoryID,
			CreatedAt:   s.now(),
		}
		if err := s.stores.Products.Insert(ctx, p); err != nil {
			return fmt.Errorf("seed product %q: %w", sp.name, err)
		}
		added++
	}

	s.Invalidate()
	s.log.WithFields(logrus.Fields{"categories": len(categoryIDs), "products_added": added}).Info("catalog seeded")
	return nil
}

func (s *CatalogService) seedCategory(ctx context.Context, c domain.Category) (string, error) {
	existing, err := s.stores.Categories.FindWhere(ctx, port.Where{"name": c.Name})
	if err != nil {
		return "", fmt.Errorf("seed category %q: %w", c.Name, err)
	}
	if len(existing) > 0 {
		return existing[0].ID, nil
	}

	c.ID = uuid.NewString()
	err = s.stores.Categories.Insert(ctx, c)
	if errors.Is(err, domain.ErrConflict) {
		// another instance seeded it first
		existing, err = s.stores.Categories.FindWhere(ctx, port.Where{"name": c.Name})
		if err == nil && len(existing) == 0 {
			err = fmt.Errorf("category vanished after conflict: %w", domain.ErrConflict)
		}
		if err != nil {
			return "", fmt.Errorf("seed category %q: %w", c.Name, err)
		}
		return existing[0].ID, nil
	}
	if err != nil {
		return "", fmt.Errorf("seed category %q: %w", c.Name, err)
	}
	return c.ID, nil
}
