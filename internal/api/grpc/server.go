package grpc

import (
	"context"
	"net"
	"time"

	"equiprent-backend/internal/api/grpc/interceptor"
	"equiprent-backend/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// RentalServiceName is the health-check service name of the rental backend.
const RentalServiceName = "equiprent.Rental"

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes grpc.health.v1.Health, reporting SERVING while the database answers pings.
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	db       Pinger
	interval time.Duration
}

func NewServer(db Pinger, interval time.Duration) *Server {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	s := &Server{
		grpc:     grpc.NewServer(grpc.UnaryInterceptor(interceptor.LoggingUnary())),
		health:   health.NewServer(),
		db:       db,
		interval: interval,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)

	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(RentalServiceName, st)
}

// Check pings the database once and publishes the resulting status.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.db.Ping(ctx); err != nil {
		logger.Warn("Database ping failed, reporting NOT_SERVING", "error", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.setStatus(st)
	return st
}

// Watch re-checks health every interval until ctx is done.
func (s *Server) Watch(ctx context.Context) {
	s.Check(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Serve blocks serving on lis.
func (s *Server) Serve(lis net.Listener) error {
	logger.Info("gRPC health server listening", "address", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// GracefulStop marks the server NOT_SERVING and drains in-flight calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
