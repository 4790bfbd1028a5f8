package health

import (
	"context"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/oshokin/swupdate-httpd/internal/logger"
)

// CatalogService is the service name reported for the artifact catalog.
const CatalogService = "swupdate.Catalog"

// Prober reports whether the catalog is currently usable.
type Prober interface {
	Ready(ctx context.Context) error
}

// Server implements grpc.health.v1.Health on top of a Prober.
type Server struct {
	healthpb.UnimplementedHealthServer

	// prober checks the catalog on every request.
	prober Prober
}

// NewServer wires the provided prober into a gRPC health handler.
func NewServer(prober Prober) *Server {
	return &Server{
		prober: prober,
	}
}

// Check reports SERVING when the catalog can be listed.
// The empty service name stands for the whole server.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	switch req.GetService() {
	case "", CatalogService:
	default:
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}

	if err := s.prober.Ready(ctx); err != nil {
		logger.WarnKV(ctx, "Catalog health check failed", "error", err)

		return &healthpb.HealthCheckResponse{
			Status: healthpb.HealthCheckResponse_NOT_SERVING,
		}, nil
	}

	return &healthpb.HealthCheckResponse{
		Status: healthpb.HealthCheckResponse_SERVING,
	}, nil
}
