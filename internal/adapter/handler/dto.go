package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

// Wire shapes use the field names the storefront client reads.

type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"nombre"`
	Description *string   `json:"descripcion"`
	Price       float64   `json:"precio"`
	Stock       int       `json:"stock"`
	Category    string    `json:"categoria"`
	Image       *string   `json:"imagen"`
	Active      bool      `json:"activo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CartItemResponse struct {
	ID        string          `json:"id"`
	CartID    string          `json:"carritoId"`
	ProductID string          `json:"productoId"`
	Quantity  int             `json:"cantidad"`
	UnitPrice float64         `json:"precioUnitario"`
	Product   ProductResponse `json:"producto"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type CartResponse struct {
	ID           string             `json:"id"`
	UserID       string             `json:"usuarioId"`
	Status       string             `json:"estado"`
	Discount     *float64           `json:"descuento,omitempty"`
	ShippingType *string            `json:"tipoEnvio,omitempty"`
	Total        float64            `json:"total"`
	Items        []CartItemResponse `json:"items"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

type SummaryLineResponse struct {
	ProductID string  `json:"productoId"`
	Name      string  `json:"nombre"`
	Price     float64 `json:"precio"`
	Quantity  int     `json:"cantidad"`
}

type SummaryResponse struct {
	ID       string                `json:"id"`
	Products []SummaryLineResponse `json:"productos"`
	Total    float64               `json:"total"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"nombre"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SeedResponse struct {
	Message string `json:"message"`
	Created int    `json:"creados"`
}

type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: optional(p.Description),
		Price:       money(p.Price),
		Stock:       p.Stock,
		Category:    p.Category,
		Image:       optional(p.Image),
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductResponses(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

func toCartResponse(c *domain.Cart) CartResponse {
	resp := CartResponse{
		ID:           c.ID,
		UserID:       c.UserID,
		Status:       string(c.Status),
		ShippingType: optional(c.ShippingType),
		Total:        money(c.Total),
		Items:        make([]CartItemResponse, 0, len(c.Items)),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	if c.Discount.Valid {
		d := money(c.Discount.Decimal)
		resp.Discount = &d
	}
	for _, item := range c.Items {
		resp.Items = append(resp.Items, CartItemResponse{
			ID:        item.ID,
			CartID:    item.CartID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: money(item.UnitPrice),
			Product:   toProductResponse(item.Product),
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		})
	}
	return resp
}

func toSummaryResponse(s domain.CartSummary) SummaryResponse {
	resp := SummaryResponse{
		ID:       s.ID,
		Products: make([]SummaryLineResponse, 0, len(s.Products)),
		Total:    money(s.Total),
	}
	for _, line := range s.Products {
		resp.Products = append(resp.Products, SummaryLineResponse{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     money(line.Price),
			Quantity:  line.Quantity,
		})
	}
	return resp
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toSeedResponse(r service.SeedResult) SeedResponse {
	return SeedResponse{Message: r.Message, Created: r.Created}
}
