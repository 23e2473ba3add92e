package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"characterai/backend/pkg/config"
	"characterai/backend/pkg/di"
	"characterai/backend/pkg/health"
	"characterai/backend/pkg/logger"
	"characterai/backend/pkg/observability"
	"characterai/backend/pkg/router"
)

func main() {
	// Load configuration (.env included)
	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application",
		"version", os.Getenv("APP_VERSION"),
		"env", cfg.Server.Env,
		"db_driver", cfg.Database.Driver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.TracingEnabled {
		shutdownTracing, err := observability.SetupTracing(cfg.Observability.ServiceName, os.Stdout)
		if err != nil {
			log.LogError(err, "Failed to initialize tracing")
			os.Exit(1)
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				log.LogError(err, "Failed to flush traces")
			}
		}()
	}

	// Initialize dependency injection container
	container, err := di.New(ctx, cfg, log)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}
	defer container.Close()

	r, err := router.New(container)
	if err != nil {
		log.LogError(err, "Failed to initialize router")
		os.Exit(1)
	}
	if err := r.SetupRoutes(); err != nil {
		log.LogError(err, "Failed to register routes")
		os.Exit(1)
	}
	r.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			stop()
		}
	}()

	var grpcServer *health.GRPCServer
	if cfg.Server.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
		if err != nil {
			log.LogError(err, "Failed to listen for gRPC", "port", cfg.Server.GRPCPort)
			os.Exit(1)
		}
		grpcServer = health.NewGRPCServer(container.Health, log)
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				log.LogError(err, "gRPC server stopped")
			}
		}()
	}

	// Block until we receive a signal
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	r.WS.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}
	if grpcServer != nil {
		grpcServer.Stop()
	}

	log.Info("Server exited gracefully")
}
