package handler

import (
	"context"

	"google.golang.org/grpc"
)

const cartServiceName = "storefront.v1.CartService"

type CartRequest struct {
	UserID string `json:"usuarioId" validate:"required,uuid"`
}

type AddItemMessage struct {
	UserID         string `json:"usuarioId" validate:"required,uuid"`
	ProductID      string `json:"productoId" validate:"required,uuid"`
	Quantity       int    `json:"cantidad" validate:"required,min=1"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

type UpdateItemMessage struct {
	UserID    string `json:"usuarioId" validate:"required,uuid"`
	ProductID string `json:"productoId" validate:"required,uuid"`
	Quantity  *int   `json:"cantidad" validate:"required"`
}

type ItemMessage struct {
	UserID    string `json:"usuarioId" validate:"required,uuid"`
	ProductID string `json:"productoId" validate:"required,uuid"`
}

type CartServiceServer interface {
	GetCart(context.Context, *CartRequest) (*CartResponse, error)
	AddItem(context.Context, *AddItemMessage) (*CartResponse, error)
	UpdateItemQuantity(context.Context, *UpdateItemMessage) (*CartResponse, error)
	RemoveItem(context.Context, *ItemMessage) (*CartResponse, error)
	ClearCart(context.Context, *CartRequest) (*CartResponse, error)
	GetSummary(context.Context, *CartRequest) (*SummaryResponse, error)
}

func unaryHandler[Req any, Resp any](method string, call func(CartServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(CartServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + cartServiceName + "/" + method,
			}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

var CartServiceDesc = grpc.ServiceDesc{
	ServiceName: cartServiceName,
	HandlerType: (*CartServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("GetCart", CartServiceServer.GetCart),
		unaryHandler("AddItem", CartServiceServer.AddItem),
		unaryHandler("UpdateItemQuantity", CartServiceServer.UpdateItemQuantity),
		unaryHandler("RemoveItem", CartServiceServer.RemoveItem),
		unaryHandler("ClearCart", CartServiceServer.ClearCart),
		unaryHandler("GetSummary", CartServiceServer.GetSummary),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/v1/cart",
}

func RegisterCartServiceServer(s grpc.ServiceRegistrar, srv CartServiceServer) {
	s.RegisterService(&CartServiceDesc, srv)
}

// CartServiceClient calls the cart service with the JSON codec.
type CartServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCartServiceClient(cc grpc.ClientConnInterface) *CartServiceClient {
	return &CartServiceClient{cc: cc}
}

func invoke[Req any, Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+cartServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CartServiceClient) GetCart(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[CartRequest, CartResponse](ctx, c.cc, "GetCart", in, opts)
}

func (c *CartServiceClient) AddItem(ctx context.Context, in *AddItemMessage, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[AddItemMessage, CartResponse](ctx, c.cc, "AddItem", in, opts)
}

func (c *CartServiceClient) UpdateItemQuantity(ctx context.Context, in *UpdateItemMessage, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[UpdateItemMessage, CartResponse](ctx, c.cc, "UpdateItemQuantity", in, opts)
}

func (c *CartServiceClient) RemoveItem(ctx context.Context, in *ItemMessage, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[ItemMessage, CartResponse](ctx, c.cc, "RemoveItem", in, opts)
}

func (c *CartServiceClient) ClearCart(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[CartRequest, CartResponse](ctx, c.cc, "ClearCart", in, opts)
}

func (c *CartServiceClient) GetSummary(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*SummaryResponse, error) {
	return invoke[CartRequest, SummaryResponse](ctx, c.cc, "GetSummary", in, opts)
}
