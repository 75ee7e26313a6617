package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

var ErrProductNotFound = errors.WithMessage(domain.ErrNotFound, "product not found")

type SeedResult struct {
	Message string
	Created int
}

type CatalogService struct {
	products port.ProductRepository
}

func NewCatalogService(products port.ProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.ListActiveProducts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

func (s *CatalogService) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	products, err := s.products.ListActiveProductsByCategory(ctx, category)
	if err != nil {
		return nil, errors.Wrap(err, "list products by category")
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// SeedProducts inserts the demo catalog. Products already present by name are left untouched.
func (s *CatalogService) SeedProducts(ctx context.Context) (SeedResult, error) {
	created := 0
	for _, product := range DemoCatalog() {
		if err := product.Validate(); err != nil {
			return SeedResult{}, err
		}
		inserted, err := s.products.UpsertProductByName(ctx, product)
		if err != nil {
			return SeedResult{}, errors.Wrapf(err, "seed product %q", product.Name)
		}
		if inserted {
			created++
		}
	}
	return SeedResult{Message: "Productos de ejemplo creados", Created: created}, nil
}

// DemoCatalog is the fixed storefront catalog.
func DemoCatalog() []domain.Product {
	return []domain.Product{
		{
			Name:        "iPhone 14 Pro",
			Description: "Smartphone Apple con cámara profesional",
			Price:       decimal.RequireFromString("999.99"),
			Stock:       50,
			Category:    "Electrónicos",
			Image:       "https://images.unsplash.com/photo-1592750475338-74b7b21085ab?w=400",
			Active:      true,
		},
		{
			Name:        "MacBook Air M2",
			Description: "Laptop ultradelgada con chip M2",
			Price:       decimal.RequireFromString("1199.99"),
			Stock:       25,
			Category:    "Electrónicos",
			Image:       "https://images.unsplash.com/photo-1541807084-5c52b6b3adef?w=400",
			Active:      true,
		},
		{
			Name:        "Nike Air Max",
			Description: "Zapatillas deportivas cómodas",
			Price:       decimal.RequireFromString("129.99"),
			Stock:       100,
			Category:    "Ropa",
			Image:       "https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=400",
			Active:      true,
		},
		{
			Name:        "Camiseta Básica",
			Description: "Camiseta 100% algodón",
			Price:       decimal.RequireFromString("19.99"),
			Stock:       200,
			Category:    "Ropa",
			Image:       "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=400",
			Active:      true,
		},
		{
			Name:        "Auriculares Sony",
			Description: "Auriculares inalámbricos con cancelación de ruido",
			Price:       decimal.RequireFromString("299.99"),
			Stock:       75,
			Category:    "Electrónicos",
			Image:       "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=400",
			Active:      true,
		},
		{
			Name:        "Libro: Clean Code",
			Description: "Manual de programación limpia",
			Price:       decimal.RequireFromString("45.99"),
			Stock:       30,
			Category:    "Libros",
			Image:       "https://images.unsplash.com/photo-1544716278-ca5e3f4abd8c?w=400",
			Active:      true,
		},
	}
}
