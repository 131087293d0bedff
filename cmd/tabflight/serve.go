package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/hugr-lab/tabflight"
	"github.com/hugr-lab/tabflight/dataset"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load a dataset and serve it over Arrow Flight",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("name", "", "dataset name advertised by ListFlights")
	cmd.Flags().String("listen", "", "gRPC listen address")
	cmd.Flags().String("metrics-listen", "", "Prometheus /metrics listen address; empty disables")
	cmd.Flags().String("auth-token", "", "shared bearer token; empty disables authentication")
	cmd.Flags().Int("max-message-size", 0, "maximum gRPC message size in bytes")
	cmd.Flags().Int("batch-size", 0, "rows per Arrow record batch")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ds, err := openDataset(cfg)
	if err != nil {
		return err
	}
	logger.Info("Dataset loaded",
		"path", cfg.Data.Path,
		"rows", ds.Len(),
		"columns", ds.Schema().Len(),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	config := tabflight.ServerConfig{
		Dataset:        ds,
		Name:           cfg.Data.Name,
		Logger:         logger,
		MaxMessageSize: cfg.GRPC.MaxMessageSize,
		BatchSize:      cfg.GRPC.BatchSize,
		Registerer:     reg,
	}
	if cfg.Auth.Token != "" {
		config.Auth = tabflight.StaticToken(cfg.Auth.Token, "client")
	}

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Listen, err)
	}
	config.Address = "grpc://" + lis.Addr().String()

	grpcServer := grpc.NewServer(tabflight.ServerOptions(config)...)
	if err := tabflight.NewServer(grpcServer, config); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsServer = &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("Metrics listening", "address", cfg.Metrics.Listen)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}
		grpcServer.GracefulStop()
	}()

	logger.Info("Flight server listening", "address", lis.Addr().String(), "auth", config.Auth != nil)
	if err := grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("gRPC server failed: %w", err)
	}
	return nil
}

// openDataset loads the configured dataset file. A top level that is not a
// JSON array is fatal.
func openDataset(cfg *Config) (*dataset.Dataset, error) {
	if cfg.Data.Path == "" {
		return nil, errors.New("data.path is required")
	}
	schema, err := dataset.ParseSchema(cfg.Data.Schema)
	if err != nil {
		return nil, fmt.Errorf("invalid data.schema: %w", err)
	}
	if schema.Len() == 0 {
		return nil, errors.New("data.schema must declare at least one column")
	}
	return dataset.Open(cfg.Data.Path, schema)
}
