package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/olyamironova/customer-trade-service/internal/core"
	"github.com/olyamironova/customer-trade-service/internal/domain"
)

const kindInvalidRequest = "invalid-request"

type GRPCServer struct {
	Eng *core.Engine
	log logrus.FieldLogger
}

func NewGRPCServer(eng *core.Engine, log logrus.FieldLogger) *GRPCServer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &GRPCServer{Eng: eng, log: log}
}

// Server returns a grpc.Server with the service registered and calls logged.
func (s *GRPCServer) Server(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.logCalls))
	srv := grpc.NewServer(opts...)
	RegisterCustomerServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) GetCustomerInformation(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	info, err := s.Eng.GetCustomerInformation(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return encodeCustomerInformation(info), nil
}

func (s *GRPCServer) Trade(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	customerID, tr, err := decodeTradeRequest(req)
	if err != nil {
		return nil, withKind(status.New(codes.InvalidArgument, err.Error()), kindInvalidRequest)
	}
	res, err := s.Eng.Trade(ctx, customerID, tr)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return encodeTradeResult(res), nil
}

// toStatus maps domain kinds onto gRPC codes. Other failures are logged and
// reported as Internal without their cause.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return withKind(status.New(codeFor(de.Kind), de.Detail), string(de.Kind))
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	s.log.WithError(err).Error("rpc failed")
	return status.Error(codes.Internal, "internal error")
}

func codeFor(kind domain.ErrorKind) codes.Code {
	switch kind {
	case domain.KindCustomerNotFound:
		return codes.NotFound
	case domain.KindInsufficientBalance, domain.KindInsufficientShares:
		return codes.FailedPrecondition
	default:
		return codes.InvalidArgument
	}
}

// withKind attaches {"kind": kind} as a status detail.
func withKind(st *status.Status, kind string) error {
	detail := &structpb.Struct{Fields: map[string]*structpb.Value{
		"kind": structpb.NewStringValue(kind),
	}}
	if ds, err := st.WithDetails(detail); err == nil {
		st = ds
	}
	return st.Err()
}

func (s *GRPCServer) logCalls(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	entry := s.log.WithFields(logrus.Fields{
		"method":  info.FullMethod,
		"code":    status.Code(err).String(),
		"latency": time.Since(start).String(),
	})
	if status.Code(err) == codes.Internal {
		entry.Error("rpc served")
	} else {
		entry.Info("rpc served")
	}
	return resp, err
}
