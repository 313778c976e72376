package server

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/swipe-engine/internal/config"
)

// HealthRegistrar exposes grpc.health.v1.Health. Probe reports whether the
// service's dependencies are reachable.
type HealthRegistrar struct {
	Health *health.Server
}

func NewHealthRegistrar() *HealthRegistrar {
	return &HealthRegistrar{Health: health.NewServer()}
}

func (h *HealthRegistrar) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.Health)
}

// SetServing flips the overall serving status.
func (h *HealthRegistrar) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.Health.SetServingStatus("", status)
}

// GRPCServer is the admin listener (health + reflection).
type GRPCServer struct {
	srv  *grpc.Server
	addr string
}

// NewGRPCServer builds a gRPC server and registers all provided services
func NewGRPCServer(cfg *config.Config, registrars ...GRPCRegistrar) *GRPCServer {
	grpcServer := grpc.NewServer()

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return &GRPCServer{srv: grpcServer, addr: fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)}
}

func (g *GRPCServer) Addr() string { return g.addr }

// Serve blocks until the server stops.
func (g *GRPCServer) Serve() error {
	lis, err := net.Listen("tcp", g.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", g.addr, err)
	}
	return g.ServeListener(lis)
}

func (g *GRPCServer) ServeListener(lis net.Listener) error {
	return g.srv.Serve(lis)
}

// Shutdown drains in-flight RPCs until ctx ends, then forces a stop.
func (g *GRPCServer) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		g.srv.Stop()
	}
}
