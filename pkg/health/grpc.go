package health

import (
	"fmt"
	"net"

	"characterai/backend/pkg/logger"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// GRPCServer exposes the checker through the standard grpc.health.v1 service
type GRPCServer struct {
	server *grpc.Server
	health *grpchealth.Server
	log    *logger.Logger
}

// NewGRPCServer mirrors the checker's overall health into the gRPC health service
func NewGRPCServer(checker *Checker, log *logger.Logger) *GRPCServer {
	srv := grpc.NewServer()
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	g := &GRPCServer{server: srv, health: hs, log: log}
	g.set(checker.IsSystemHealthy())
	checker.OnChange(g.set)
	return g
}

func (g *GRPCServer) set(healthy bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	g.health.SetServingStatus("", status)
}

// Serve blocks serving on lis
func (g *GRPCServer) Serve(lis net.Listener) error {
	g.log.Info("gRPC health server listening", "addr", lis.Addr().String())
	if err := g.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Stop drains in-flight RPCs and stops the server
func (g *GRPCServer) Stop() {
	g.health.Shutdown()
	g.server.GracefulStop()
}
