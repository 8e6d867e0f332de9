package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/aescanero/predictd/internal/application/inference"
	"github.com/aescanero/predictd/pkg/domain"
)

const (
	// ServiceName is the fully qualified gRPC service name
	ServiceName = "predictd.v1.Predictor"
	// PredictMethod is the full method name of Predict
	PredictMethod = "/" + ServiceName + "/Predict"

	requestIDMetadata = "x-request-id"
)

type requestIDKey struct{}

// PredictorServer is the server API for the Predictor service.
// Requests and responses are google.protobuf.Struct messages.
type PredictorServer interface {
	Predict(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var predictorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PredictorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Predict",
			Handler:    predictHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "predictd/v1/predictor.proto",
}

func predictHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PredictorServer).Predict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: PredictMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PredictorServer).Predict(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Server represents the gRPC API server
type Server struct {
	server   *grpc.Server
	listener net.Listener
	health   *health.Server
	service  *inference.Service
	logger   *zap.Logger
}

// Config holds gRPC server configuration
type Config struct {
	Port    int
	Service *inference.Service
	Logger  *zap.Logger

	// Listener overrides Port when set
	Listener net.Listener
}

// NewServer creates a new gRPC server
func NewServer(cfg *Config) (*Server, error) {
	listener := cfg.Listener
	if listener == nil {
		var err error
		listener, err = net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
		if err != nil {
			return nil, fmt.Errorf("failed to create listener: %w", err)
		}
	}

	s := &Server{
		listener: listener,
		health:   health.NewServer(),
		service:  cfg.Service,
		logger:   cfg.Logger,
	}

	s.server = grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	s.server.RegisterService(&predictorServiceDesc, s)
	healthpb.RegisterHealthServer(s.server, s.health)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return s, nil
}

// Predict runs the model on a single feature row
func (s *Server) Predict(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	row, err := inference.NormalizeRow(in.AsMap())
	if err != nil {
		return nil, toStatus(err)
	}

	id, _ := ctx.Value(requestIDKey{}).(string)
	if id == "" {
		id = requestID(ctx)
	}

	prediction, err := s.service.Predict(ctx, inference.Request{
		ID:     id,
		Source: inference.SourceGRPC,
		Frame:  domain.Frame{row},
	})
	if err != nil {
		return nil, toStatus(err)
	}

	values := make([]interface{}, len(prediction))
	for i, v := range prediction {
		values[i] = v
	}

	out, err := structpb.NewStruct(map[string]interface{}{"prediction": values})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode prediction: %v", err)
	}
	return out, nil
}

// Start starts the gRPC server
func (s *Server) Start() error {
	s.logger.Info("starting gRPC server", zap.String("addr", s.listener.Addr().String()))

	if err := s.server.Serve(s.listener); err != nil {
		return fmt.Errorf("failed to serve gRPC: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down gRPC server")

	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		s.server.Stop()
		<-stopped
		return fmt.Errorf("failed to shutdown gRPC server: %w", ctx.Err())
	}

	s.logger.Info("gRPC server shut down complete")
	return nil
}

func (s *Server) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	id := requestID(ctx)
	resp, err := handler(context.WithValue(ctx, requestIDKey{}, id), req)

	s.logger.Info("gRPC request",
		zap.String("request_id", id),
		zap.String("method", info.FullMethod),
		zap.String("code", status.Code(err).String()),
		zap.Duration("duration", time.Since(start)))

	return resp, err
}

// toStatus maps prediction errors onto gRPC status codes
func toStatus(err error) error {
	e, ok := inference.AsError(err)
	if !ok {
		return status.Error(codes.Internal, err.Error())
	}

	switch e.Code {
	case inference.CodeInvalidPayload:
		return status.Error(codes.InvalidArgument, e.Error())
	default:
		return status.Error(codes.Internal, e.Error())
	}
}

// requestID returns the caller's x-request-id or a fresh one
func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(requestIDMetadata); len(ids) > 0 && ids[0] != "" {
			return ids[0]
		}
	}
	return uuid.New().String()
}
