package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// LaborServiceName は gRPC のサービス名です。
const LaborServiceName = "hospo.labor.v1.LaborIntelligenceService"

const (
	reconcileWeekMethod         = "/" + LaborServiceName + "/ReconcileWeek"
	weeklyInsightsMethod        = "/" + LaborServiceName + "/WeeklyInsights"
	contributionBreakdownMethod = "/" + LaborServiceName + "/ContributionBreakdown"
)

// LaborServiceServer は LaborIntelligenceService のサーバー側インターフェースです。
// メッセージは google.protobuf.Struct で表現します。
type LaborServiceServer interface {
	ReconcileWeek(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WeeklyInsights(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ContributionBreakdown(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterLaborServiceServer はサービスを gRPC サーバーに登録します。
func RegisterLaborServiceServer(s grpc.ServiceRegistrar, srv LaborServiceServer) {
	s.RegisterService(&LaborServiceDesc, srv)
}

func unaryHandler(method string, call func(LaborServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LaborServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(LaborServiceServer), ctx, req.(*structpb.Struct))
		})
	}
}

// LaborServiceDesc は LaborIntelligenceService の grpc.ServiceDesc です。
var LaborServiceDesc = grpc.ServiceDesc{
	ServiceName: LaborServiceName,
	HandlerType: (*LaborServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ReconcileWeek",
			Handler:    unaryHandler(reconcileWeekMethod, LaborServiceServer.ReconcileWeek),
		},
		{
			MethodName: "WeeklyInsights",
			Handler:    unaryHandler(weeklyInsightsMethod, LaborServiceServer.WeeklyInsights),
		},
		{
			MethodName: "ContributionBreakdown",
			Handler:    unaryHandler(contributionBreakdownMethod, LaborServiceServer.ContributionBreakdown),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hospo/labor/v1/labor.proto",
}

// LaborServiceClient は LaborIntelligenceService のクライアントです。
type LaborServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLaborServiceClient は LaborServiceClient を生成します。
func NewLaborServiceClient(cc grpc.ClientConnInterface) *LaborServiceClient {
	return &LaborServiceClient{cc: cc}
}

func (c *LaborServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LaborServiceClient) ReconcileWeek(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, reconcileWeekMethod, in, opts...)
}

func (c *LaborServiceClient) WeeklyInsights(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, weeklyInsightsMethod, in, opts...)
}

func (c *LaborServiceClient) ContributionBreakdown(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, contributionBreakdownMethod, in, opts...)
}
