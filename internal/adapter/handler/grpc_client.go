package handler

import (
	"context"

	"google.golang.org/grpc"
)

// OrdersClient calls the order service with the JSON codec.
type OrdersClient struct {
	cc grpc.ClientConnInterface
}

func NewOrdersClient(cc grpc.ClientConnInterface) *OrdersClient {
	return &OrdersClient{cc: cc}
}

func (c *OrdersClient) Transition(ctx context.Context, in *OrderTransitionRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	return out, c.invoke(ctx, "Transition", in, out, opts)
}

func (c *OrdersClient) GetOrder(ctx context.Context, in *OrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	return out, c.invoke(ctx, "GetOrder", in, out, opts)
}

func (c *OrdersClient) GenerateInvoice(ctx context.Context, in *GenerateInvoiceRequest, opts ...grpc.CallOption) (*InvoiceResponse, error) {
	out := new(InvoiceResponse)
	return out, c.invoke(ctx, "GenerateInvoice", in, out, opts)
}

func (c *OrdersClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ordersServiceName+"/"+method, in, out, opts...)
}
