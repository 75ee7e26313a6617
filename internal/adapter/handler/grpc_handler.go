package handler

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront/internal/core/service"
)

type GRPCHandler struct {
	carts    *service.CartService
	validate *requestValidator
	log      *zap.Logger
}

func NewGRPCHandler(carts *service.CartService, log *zap.Logger) *GRPCHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &GRPCHandler{carts: carts, validate: newRequestValidator(), log: log}
}

func (h *GRPCHandler) GetCart(ctx context.Context, req *CartRequest) (*CartResponse, error) {
	if err := h.validate.Validate(req); err != nil {
		return nil, h.toStatus(err)
	}
	cart, err := h.carts.GetCart(ctx, req.UserID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	resp := toCartResponse(cart)
	return &resp, nil
}

func (h *GRPCHandler) AddItem(ctx context.Context, req *AddItemMessage) (*CartResponse, error) {
	if err := h.validate.Validate(req); err != nil {
		return nil, h.toStatus(err)
	}
	cart, err := h.carts.AddItem(ctx, req.UserID, service.AddItemRequest{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		RequestID: req.IdempotencyKey,
	})
	if err != nil {
		return nil, h.toStatus(err)
	}
	resp := toCartResponse(cart)
	return &resp, nil
}

func (h *GRPCHandler) UpdateItemQuantity(ctx context.Context, req *UpdateItemMessage) (*CartResponse, error) {
	if err := h.validate.Validate(req); err != nil {
		return nil, h.toStatus(err)
	}
	cart, err := h.carts.UpdateItemQuantity(ctx, req.UserID, req.ProductID, *req.Quantity)
	if err != nil {
		return nil, h.toStatus(err)
	}
	resp := toCartResponse(cart)
	return &resp, nil
}

func (h *GRPCHandler) RemoveItem(ctx context.Context, req *ItemMessage) (*CartResponse, error) {
	if err := h.validate.Validate(req); err != nil {
		return nil, h.toStatus(err)
	}
	cart, err := h.carts.RemoveItem(ctx, req.UserID, req.ProductID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	resp := toCartResponse(cart)
	return &resp, nil
}

func (h *GRPCHandler) ClearCart(ctx context.Context, req *CartRequest) (*CartResponse, error) {
	if err := h.validate.Validate(req); err != nil {
		return nil, h.toStatus(err)
	}
	cart, err := h.carts.ClearCart(ctx, req.UserID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	resp := toCartResponse(cart)
	return &resp, nil
}

func (h *GRPCHandler) GetSummary(ctx context.Context, req *CartRequest) (*SummaryResponse, error) {
	if err := h.validate.Validate(req); err != nil {
		return nil, h.toStatus(err)
	}
	summary, err := h.carts.BuildSummary(ctx, req.UserID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	resp := toSummaryResponse(summary)
	return &resp, nil
}

func (h *GRPCHandler) toStatus(err error) error {
	kind, message := classify(err)
	switch kind {
	case kindInvalid:
		return status.Error(codes.InvalidArgument, message)
	case kindNotFound:
		return status.Error(codes.NotFound, message)
	case kindConflict:
		return status.Error(codes.AlreadyExists, message)
	}
	h.log.Error("cart call failed", zap.Error(err))
	return status.Error(codes.Internal, message)
}

// UnaryLogger logs every call and converts handler panics into Internal errors.
func UnaryLogger(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc handler panicked", zap.String("method", info.FullMethod), zap.Any("panic", r))
				err = status.Error(codes.Internal, "Error interno del servidor")
			}
		}()

		resp, err = handler(ctx, req)
		log.Info("grpc call",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()))
		return resp, err
	}
}
