package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/dasmlab/tranzlate/pkg/server"
)

var (
	httpPort int
	grpcPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP translation API and gRPC health endpoint",
	Long: `Starts the JSON translation API with /metrics and a gRPC health
service for probes.

Examples:
  tranzlate serve
  tranzlate serve --engine libretranslate --endpoint http://localhost:5000
  tranzlate serve --config tranzlate.yaml --http-port 9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&httpPort, "http-port", 0, "HTTP API port (overrides config)")
	serveCmd.Flags().IntVar(&grpcPort, "grpc-port", 0, "gRPC health port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	if httpPort != 0 {
		a.cfg.Server.HTTPPort = httpPort
	}
	if grpcPort != 0 {
		a.cfg.Server.GRPCPort = grpcPort
	}

	logger.WithFields(logrus.Fields{
		"http_port": a.cfg.Server.HTTPPort,
		"grpc_port": a.cfg.Server.GRPCPort,
		"engine":    a.cfg.Backend.Engine,
		"endpoint":  a.cfg.Backend.Endpoint,
		"workers":   a.cfg.Pipeline.Workers,
		"max_words": a.cfg.Pipeline.MaxWords,
	}).Info("Starting tranzlate server")

	// Verify translator is healthy
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("Checking translator health...")
	if err := a.translator.CheckHealth(ctx); err != nil {
		logger.WithError(err).Warn("Translator health check failed, but continuing anyway")
		logger.Warn("Server will start, but translation requests may fail until translator is ready")
	} else {
		logger.Info("Translator health check passed")
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", a.cfg.Server.GRPCPort, err)
	}

	opts := []grpc.ServerOption{
		grpc.Creds(insecure.NewCredentials()),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             15 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     5 * time.Minute,
			MaxConnectionAge:      30 * time.Minute,
			MaxConnectionAgeGrace: 5 * time.Second,
			Time:                  30 * time.Second,
			Timeout:               10 * time.Second,
		}),
	}
	grpcServer := grpc.NewServer(opts...)

	// Register health check service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	// Enable reflection for grpcurl/debugging
	reflection.Register(grpcServer)

	httpServer := server.NewHTTPServer(a.pipeline, a.translator, logger, a.cfg.Server.HTTPPort, a.cfg.Server.MaxUploadSize)

	errChan := make(chan error, 2)
	go func() {
		logger.WithFields(logrus.Fields{
			"port": a.cfg.Server.GRPCPort,
		}).Info("gRPC health server listening")
		if err := grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("failed to serve gRPC: %w", err)
		}
	}()
	go func() {
		if err := httpServer.Start(); err != nil {
			errChan <- fmt.Errorf("failed to serve HTTP: %w", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		grpcServer.Stop()
		return err
	case sig := <-sigChan:
		logger.WithFields(logrus.Fields{
			"signal": sig.String(),
		}).Info("Received signal, shutting down gracefully...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown incomplete")
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		logger.Info("Server stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Warn("Graceful shutdown timeout, forcing stop...")
		grpcServer.Stop()
	}
	return nil
}
