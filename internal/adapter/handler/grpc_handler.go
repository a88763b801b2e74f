package handler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

const ordersServiceName = "storefront.v1.Orders"

type OrderRequest struct {
	OrderID string `json:"order_id"`
}

type OrderTransitionRequest struct {
	OrderID string `json:"order_id"`
	Event   string `json:"event"`
}

type GenerateInvoiceRequest struct {
	OrderID string `json:"order_id"`
	PDFURL  string `json:"pdf_url,omitempty"`
}

// OrdersServer is the order lifecycle surface exposed over gRPC.
type OrdersServer interface {
	Transition(context.Context, *OrderTransitionRequest) (*OrderResponse, error)
	GetOrder(context.Context, *OrderRequest) (*OrderResponse, error)
	GenerateInvoice(context.Context, *GenerateInvoiceRequest) (*InvoiceResponse, error)
}

var ordersServiceDesc = grpc.ServiceDesc{
	ServiceName: ordersServiceName,
	HandlerType: (*OrdersServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Transition", OrdersServer.Transition),
		unary("GetOrder", OrdersServer.GetOrder),
		unary("GenerateInvoice", OrdersServer.GenerateInvoice),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/v1/orders",
}

func RegisterOrdersServer(s grpc.ServiceRegistrar, srv OrdersServer) {
	s.RegisterService(&ordersServiceDesc, srv)
}

func unary[Req, Resp any](name string, call func(OrdersServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ordersServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(OrdersServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(OrdersServer), ctx, req.(*Req))
			})
		},
	}
}

type GRPCHandler struct {
	orders   *service.OrderService
	invoices *service.InvoiceService
}

func NewGRPCHandler(orders *service.OrderService, invoices *service.InvoiceService) *GRPCHandler {
	return &GRPCHandler{orders: orders, invoices: invoices}
}

func (h *GRPCHandler) Transition(ctx context.Context, req *OrderTransitionRequest) (*OrderResponse, error) {
	event, ok := domain.ParseOrderEvent(req.Event)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown event %q", req.Event)
	}
	order, err := h.orders.Transition(ctx, grpcActor(ctx), req.OrderID, event)
	if err != nil {
		return nil, grpcError(err)
	}
	resp := toOrder(order)
	return &resp, nil
}

func (h *GRPCHandler) GetOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	order, err := h.orders.Get(ctx, grpcActor(ctx), req.OrderID)
	if err != nil {
		return nil, grpcError(err)
	}
	resp := toOrderWithItems(order)
	return &resp, nil
}

func (h *GRPCHandler) GenerateInvoice(ctx context.Context, req *GenerateInvoiceRequest) (*InvoiceResponse, error) {
	inv, err := h.invoices.GenerateForOrder(ctx, grpcActor(ctx), req.OrderID, req.PDFURL)
	if err != nil {
		return nil, grpcError(err)
	}
	resp := toInvoice(inv)
	return &resp, nil
}

type grpcActorKey struct{}

func grpcActor(ctx context.Context) domain.Actor {
	a, _ := ctx.Value(grpcActorKey{}).(domain.Actor)
	return a
}

// AuthInterceptor resolves the bearer token in the "authorization" metadata
// into an actor. Health checks pass through unauthenticated.
func AuthInterceptor(auth port.Authenticator, actors ActorResolver) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if info.FullMethod == "/grpc.health.v1.Health/Check" {
			return next(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		var token string
		if vals := md.Get("authorization"); len(vals) > 0 {
			token, _ = bearerToken(vals[0])
		}
		if token == "" {
			return nil, status.Error(codes.Unauthenticated, "authorization metadata required")
		}

		uid, err := auth.Authenticate(ctx, token)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		actor, err := actors.Actor(ctx, uid)
		if err != nil {
			return nil, grpcError(err)
		}
		return next(context.WithValue(ctx, grpcActorKey{}, actor), req)
	}
}

func LoggingInterceptor(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)

		entry := log.WithFields(logrus.Fields{
			"method":     info.FullMethod,
			"code":       status.Code(err).String(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
		switch status.Code(err) {
		case codes.OK:
			entry.Info("rpc completed")
		case codes.Internal, codes.Unknown:
			entry.WithError(err).Error("rpc failed")
		default:
			entry.Warn("rpc rejected")
		}
		return resp, err
	}
}
