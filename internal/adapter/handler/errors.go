package handler

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

type errorKind int

const (
	kindInternal errorKind = iota
	kindInvalid
	kindNotFound
	kindConflict
)

// userMessages holds the client-facing text for known service errors.
var userMessages = []struct {
	err     error
	message string
}{
	{service.ErrProductNotFound, "Producto no encontrado"},
	{service.ErrUserNotFound, "Usuario no encontrado"},
	{service.ErrCartNotFound, "Carrito no encontrado"},
	{service.ErrItemNotFound, "El producto no está en el carrito"},
	{service.ErrInsufficientStock, "Stock insuficiente"},
	{service.ErrInvalidQuantity, "La cantidad debe ser al menos 1"},
	{service.ErrDuplicateRequest, "Solicitud duplicada"},
}

func classify(err error) (errorKind, string) {
	kind := kindInternal
	switch {
	case errors.Is(err, domain.ErrNotFound):
		kind = kindNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		kind = kindInvalid
	case errors.Is(err, domain.ErrConflict):
		kind = kindConflict
	default:
		return kindInternal, "Error interno del servidor"
	}

	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return kind, m.message
		}
	}
	return kind, err.Error()
}

func httpStatus(kind errorKind) int {
	switch kind {
	case kindInvalid:
		return http.StatusBadRequest
	case kindNotFound:
		return http.StatusNotFound
	case kindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
