package health

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"characterai/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestCheckerReportsCriticalFailure(t *testing.T) {
	checker := NewChecker(logger.Discard(), time.Second)

	dbUp := true
	checker.RegisterPingCheck("database", func(context.Context) error {
		if dbUp {
			return nil
		}
		return errors.New("connection refused")
	})
	checker.RegisterCheck("cache", false, func(context.Context) (Status, string, error) {
		return StatusDown, "cache offline", errors.New("no redis")
	})

	checker.RunChecks(context.Background())
	assert.True(t, checker.IsSystemHealthy(), "non-critical failures do not make the system unhealthy")

	dbUp = false
	checker.RunChecks(context.Background())
	assert.False(t, checker.IsSystemHealthy())

	status := checker.GetStatus()
	require.Len(t, status, 2)
	assert.Equal(t, "cache", status[0].Name)
	assert.Equal(t, "database", status[1].Name)
	assert.Equal(t, "connection refused", status[1].Error)
}

func TestGRPCServerMirrorsChecker(t *testing.T) {
	checker := NewChecker(logger.Discard(), time.Second)
	healthy := true
	checker.RegisterPingCheck("database", func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("down")
	})
	checker.RunChecks(context.Background())

	srv := NewGRPCServer(checker, logger.Discard())
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	healthy = false
	checker.RunChecks(context.Background())

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
