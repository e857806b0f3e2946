package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service is described by hand and speaks only well-known protobuf
// types, so no generated stubs are needed:
//
//	service CustomerService {
//	  rpc GetCustomerInformation(google.protobuf.Int64Value) returns (google.protobuf.Struct);
//	  rpc Trade(google.protobuf.Struct) returns (google.protobuf.Struct);
//	}
const (
	ServiceName                  = "customer.v1.CustomerService"
	getCustomerInformationMethod = "/" + ServiceName + "/GetCustomerInformation"
	tradeMethod                  = "/" + ServiceName + "/Trade"
)

type CustomerServiceServer interface {
	GetCustomerInformation(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	Trade(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CustomerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCustomerInformation", Handler: getCustomerInformationHandler},
		{MethodName: "Trade", Handler: tradeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "customer/v1/customer.proto",
}

func RegisterCustomerServiceServer(s grpc.ServiceRegistrar, srv CustomerServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func getCustomerInformationHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CustomerServiceServer).GetCustomerInformation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getCustomerInformationMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CustomerServiceServer).GetCustomerInformation(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func tradeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CustomerServiceServer).Trade(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: tradeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CustomerServiceServer).Trade(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
