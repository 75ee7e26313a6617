package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/service"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HTTPHandler struct {
	catalog *service.CatalogService
	carts   *service.CartService
	users   *service.UserService
	checks  map[string]HealthCheck
	log     *zap.Logger
}

type userParam struct {
	UserID string `param:"usuarioId" json:"-" validate:"required,uuid"`
}

type itemParam struct {
	UserID    string `param:"usuarioId" json:"-" validate:"required,uuid"`
	ProductID string `param:"productoId" json:"-" validate:"required,uuid"`
}

type addItemRequest struct {
	UserID    string `param:"usuarioId" json:"-" validate:"required,uuid"`
	ProductID string `json:"productoId" validate:"required,uuid"`
	Quantity  int    `json:"cantidad" validate:"required,min=1"`
}

type updateItemRequest struct {
	UserID    string `param:"usuarioId" json:"-" validate:"required,uuid"`
	ProductID string `param:"productoId" json:"-" validate:"required,uuid"`
	// nil when the field is missing; zero or negative removes the line
	Quantity *int `json:"cantidad" validate:"required"`
}

const idempotencyHeader = "Idempotency-Key"

func NewHTTPHandler(catalog *service.CatalogService, carts *service.CartService, users *service.UserService, log *zap.Logger) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{
		catalog: catalog,
		carts:   carts,
		users:   users,
		checks:  make(map[string]HealthCheck),
		log:     log,
	}
}

// AddHealthCheck registers a dependency pinged by GET /health.
func (h *HTTPHandler) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

func (h *HTTPHandler) Register(e *echo.Echo) {
	e.GET("/health", h.HealthCheck)

	productos := e.Group("/productos")
	productos.GET("", h.ListProducts)
	productos.GET("/categoria/:categoria", h.ListProductsByCategory)
	productos.GET("/:id", h.GetProduct)
	productos.POST("/seed", h.SeedProducts)

	carrito := e.Group("/carrito")
	carrito.GET("/:usuarioId", h.GetCart)
	carrito.GET("/:usuarioId/resumen", h.GetSummary)
	carrito.POST("/:usuarioId/items", h.AddItem)
	carrito.PUT("/:usuarioId/items/:productoId", h.UpdateItemQuantity)
	carrito.DELETE("/:usuarioId/items/:productoId", h.RemoveItem)
	carrito.DELETE("/:usuarioId", h.ClearCart)

	e.POST("/usuarios/seed", h.SeedUser)
}

func (h *HTTPHandler) ListProducts(c echo.Context) error {
	products, err := h.catalog.ListProducts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProductResponses(products))
}

func (h *HTTPHandler) ListProductsByCategory(c echo.Context) error {
	category := c.Param("categoria")
	// echo matches on the raw path only when it carries escapes like %2F
	if c.Request().URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(category); err == nil {
			category = unescaped
		}
	}

	products, err := h.catalog.ListByCategory(c.Request().Context(), category)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProductResponses(products))
}

func (h *HTTPHandler) GetProduct(c echo.Context) error {
	product, err := h.catalog.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProductResponse(*product))
}

func (h *HTTPHandler) SeedProducts(c echo.Context) error {
	result, err := h.catalog.SeedProducts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSeedResponse(result))
}

func (h *HTTPHandler) SeedUser(c echo.Context) error {
	user, err := h.users.SeedDemoUser(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

func (h *HTTPHandler) GetCart(c echo.Context) error {
	var req userParam
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cart, err := h.carts.GetCart(c.Request().Context(), req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *HTTPHandler) GetSummary(c echo.Context) error {
	var req userParam
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	summary, err := h.carts.BuildSummary(c.Request().Context(), req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSummaryResponse(summary))
}

func (h *HTTPHandler) AddItem(c echo.Context) error {
	var req addItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cart, err := h.carts.AddItem(c.Request().Context(), req.UserID, service.AddItemRequest{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		RequestID: c.Request().Header.Get(idempotencyHeader),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toCartResponse(cart))
}

func (h *HTTPHandler) UpdateItemQuantity(c echo.Context) error {
	var req updateItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cart, err := h.carts.UpdateItemQuantity(c.Request().Context(), req.UserID, req.ProductID, *req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *HTTPHandler) RemoveItem(c echo.Context) error {
	var req itemParam
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cart, err := h.carts.RemoveItem(c.Request().Context(), req.UserID, req.ProductID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *HTTPHandler) ClearCart(c echo.Context) error {
	var req userParam
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cart, err := h.carts.ClearCart(c.Request().Context(), req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *HTTPHandler) HealthCheck(c echo.Context) error {
	status := http.StatusOK
	result := map[string]string{}
	for name, check := range h.checks {
		if err := check(c.Request().Context()); err != nil {
			h.log.Warn("health check failed", zap.String("check", name), zap.Error(err))
			result[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		result[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	return c.JSON(status, map[string]any{"status": overall, "checks": result})
}
