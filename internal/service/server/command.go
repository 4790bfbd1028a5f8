package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/swupdate-httpd/internal/api/grpc/health"
	api "github.com/oshokin/swupdate-httpd/internal/api/http/update"
	"github.com/oshokin/swupdate-httpd/internal/config"
	"github.com/oshokin/swupdate-httpd/internal/logger"
	"github.com/oshokin/swupdate-httpd/internal/metrics"
	"github.com/oshokin/swupdate-httpd/internal/repository/catalog"
	"github.com/oshokin/swupdate-httpd/internal/service/resolver"
)

// Options controls the update server process and configuration.
type Options struct {
	// ConfigPath specifies an optional settings YAML file.
	ConfigPath string
	// EnvFile specifies an optional dotenv file.
	EnvFile string
	// Overrides carries values given explicitly on the command line.
	Overrides *config.Overrides
	// Listening, when set, receives the bound HTTP address once the server accepts connections.
	Listening func(addr net.Addr)
}

// readHeaderTimeout bounds how long a client may take to send request headers.
const readHeaderTimeout = 10 * time.Second

// Run starts the HTTP server and blocks until the context is canceled or serving fails.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "swupdate-httpd")

	cfg, err := config.Build(opts.ConfigPath, opts.EnvFile, opts.Overrides)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}

	if info, statErr := os.Stat(cfg.ImagesDirectory); statErr != nil || !info.IsDir() {
		logger.WarnKV(ctx, "Images directory is not readable yet, update checks will fail until it is",
			"images_directory", cfg.ImagesDirectory)
	}

	var (
		m      = metrics.New()
		reader = catalog.NewDirectoryReader(cfg.ImagesDirectory)
		svc    = resolver.New(reader, cfg.Layout(), m)
		lc     = net.ListenConfig{}
	)

	lis, err := lc.Listen(ctx, "tcp", cfg.ListenAddress())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddress(), err)
	}

	// Requests keep the named logger but must outlive the stop signal while draining.
	baseCtx := context.WithoutCancel(ctx)

	httpServer := &http.Server{
		Handler:           api.NewServer(svc, cfg.ImagesDirectory, m).Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	grpcServer, err := startHealthServer(ctx, lc, cfg.GRPCHealthAddress, svc)
	if err != nil {
		_ = lis.Close()
		return err
	}

	logger.InfoKV(ctx, "Update server listening",
		"listen_address", lis.Addr().String(),
		"images_directory", cfg.ImagesDirectory,
		"separator", cfg.FieldsSeparator,
		"image_field", cfg.ImageField,
		"device_field", cfg.DeviceField,
		"version_field", cfg.VersionField,
		"log_level", logger.Level().String(),
	)

	if opts.Listening != nil {
		opts.Listening(lis.Addr())
	}

	// Done channel is closed after Shutdown finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		defer close(done)

		<-ctx.Done()
		logger.Info(ctx, "Shutting down update server")

		shutdownCtx, cancel := context.WithTimeout(baseCtx, cfg.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.ErrorKV(ctx, "HTTP shutdown failed", "error", err)
		}

		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
	}()

	if err = httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if grpcServer != nil {
			grpcServer.Stop()
		}

		return fmt.Errorf("serve HTTP: %w", err)
	}

	<-done
	logger.Info(ctx, "Update server stopped")

	return nil
}

// startHealthServer serves the gRPC health service on address; an empty address disables it.
func startHealthServer(
	ctx context.Context,
	lc net.ListenConfig,
	address string,
	prober health.Prober,
) (*grpc.Server, error) {
	if address == "" {
		return nil, nil
	}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, health.NewServer(prober))

	logger.InfoKV(ctx, "gRPC health server listening", "listen_address", lis.Addr().String())

	go func() {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.ErrorKV(ctx, "gRPC health server failed", "error", err)
		}
	}()

	return grpcServer, nil
}
