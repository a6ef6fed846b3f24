package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/essay-feedback/internal/common"
)

// NewGRPCServer returns a server with the feedback, health and reflection
// services registered. The health status starts as SERVING.
func NewGRPCServer(svc FeedbackServer, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(loggingInterceptor(logger))}, opts...)
	s := grpc.NewServer(opts...)
	RegisterFeedbackServer(s, svc)

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(s)
	return s, hs
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(common.RequestIDHeader); len(v) > 0 && v[0] != "" {
				ctx = common.WithRequestID(ctx, v[0])
			}
		}
		ctx, rid := common.EnsureRequestID(ctx)
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Warn("rpc.failed",
				"method", info.FullMethod,
				"req_id", rid,
				"code", status.Code(err).String(),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return resp, err
		}
		logger.Info("rpc.ok", "method", info.FullMethod, "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return resp, nil
	}
}
