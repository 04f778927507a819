package grpc

// proto.go defines the gRPC server interface for yield/v1/yield.proto. Messages
// travel with the JSON codec registered in json_codec.go.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "yield.v1.YieldService"

// YieldServiceServer is the server API for YieldService.
type YieldServiceServer interface {
	Predict(context.Context, *PredictRequest) (*PredictResponse, error)
	GetPrediction(context.Context, *GetPredictionRequest) (*GetPredictionResponse, error)
	DescribeModel(context.Context, *DescribeModelRequest) (*DescribeModelResponse, error)
	mustEmbedUnimplementedYieldServiceServer()
}

// UnimplementedYieldServiceServer provides forward-compatible default implementations.
type UnimplementedYieldServiceServer struct{}

func (UnimplementedYieldServiceServer) Predict(context.Context, *PredictRequest) (*PredictResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Predict not implemented")
}
func (UnimplementedYieldServiceServer) GetPrediction(context.Context, *GetPredictionRequest) (*GetPredictionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetPrediction not implemented")
}
func (UnimplementedYieldServiceServer) DescribeModel(context.Context, *DescribeModelRequest) (*DescribeModelResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method DescribeModel not implemented")
}
func (UnimplementedYieldServiceServer) mustEmbedUnimplementedYieldServiceServer() {}

// RegisterYieldServiceServer registers the YieldServiceServer with the gRPC server.
func RegisterYieldServiceServer(s grpclib.ServiceRegistrar, srv YieldServiceServer) {
	s.RegisterService(&_YieldService_serviceDesc, srv)
}

var _YieldService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*YieldServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "Predict", Handler: _YieldService_Predict_Handler},
		{MethodName: "GetPrediction", Handler: _YieldService_GetPrediction_Handler},
		{MethodName: "DescribeModel", Handler: _YieldService_DescribeModel_Handler},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "yield/v1/yield.proto",
}

func _YieldService_Predict_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(PredictRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(YieldServiceServer).Predict(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Predict"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(YieldServiceServer).Predict(ctx, req.(*PredictRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _YieldService_GetPrediction_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetPredictionRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(YieldServiceServer).GetPrediction(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetPrediction"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(YieldServiceServer).GetPrediction(ctx, req.(*GetPredictionRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _YieldService_DescribeModel_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(DescribeModelRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(YieldServiceServer).DescribeModel(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/DescribeModel"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(YieldServiceServer).DescribeModel(ctx, req.(*DescribeModelRequest))
	}
	return interceptor(ctx, req, info, handler)
}
