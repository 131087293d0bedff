package tabflight

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/tabflight/flight"
	"github.com/hugr-lab/tabflight/query"
)

// NewServer registers the tabflight Flight service on the provided gRPC server.
//
// The function:
//  1. Validates the ServerConfig
//  2. Builds the query pipeline over the dataset
//  3. Registers the Flight handlers on grpcServer
//
// Does NOT start the gRPC server; the caller controls its lifecycle.
// Interceptors for authentication and metrics come from ServerOptions:
//
//	opts := tabflight.ServerOptions(config)
//	grpcServer := grpc.NewServer(opts...)
//	if err := tabflight.NewServer(grpcServer, config); err != nil {
//	    log.Fatal(err)
//	}
//	lis, _ := net.Listen("tcp", ":50051")
//	grpcServer.Serve(lis)
func NewServer(grpcServer *grpc.Server, config ServerConfig) error {
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	allocator := config.Allocator
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}

	logger := configLogger(config)

	flightServer := flight.NewServer(query.New(config.Dataset), allocator, logger, flight.Options{
		Name:      config.Name,
		Address:   config.Address,
		BatchSize: config.BatchSize,
		Metrics:   newMetrics(config),
	})
	flight.RegisterFlightServer(grpcServer, flightServer)

	logger.Info("tabflight server registered",
		"dataset", flightServer.Name(),
		"rows", config.Dataset.Len(),
		"columns", config.Dataset.Schema().Len(),
		"has_auth", config.Auth != nil,
		"max_message_size", config.MaxMessageSize,
	)

	return nil
}

// validateConfig checks that required ServerConfig fields are valid.
func validateConfig(config ServerConfig) error {
	if config.Dataset == nil {
		return fmt.Errorf("dataset is required")
	}
	if config.MaxMessageSize < 0 {
		return fmt.Errorf("max message size must not be negative")
	}
	if config.BatchSize < 0 {
		return fmt.Errorf("batch size must not be negative")
	}
	return nil
}

func configLogger(config ServerConfig) *slog.Logger {
	switch {
	case config.Logger != nil:
		return config.Logger
	case config.LogLevel != nil:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: *config.LogLevel}))
	default:
		return slog.Default()
	}
}

// ServerOptions returns gRPC server options with metrics and authentication
// interceptors and the configured message size limits.
//
// Metrics collectors are registered on config.Registerer; NewServer given the
// same registerer updates the same series.
func ServerOptions(config ServerConfig) []grpc.ServerOption {
	var unary []grpc.UnaryServerInterceptor
	var stream []grpc.StreamServerInterceptor

	if m := newMetrics(config); m != nil {
		unary = append(unary, m.UnaryServerInterceptor())
		stream = append(stream, m.StreamServerInterceptor())
	}
	if config.Auth != nil {
		unary = append(unary, flight.UnaryServerInterceptor(config.Auth))
		stream = append(stream, flight.StreamServerInterceptor(config.Auth))
	}

	var opts []grpc.ServerOption
	if len(unary) > 0 {
		opts = append(opts,
			grpc.ChainUnaryInterceptor(unary...),
			grpc.ChainStreamInterceptor(stream...),
		)
	}

	if config.MaxMessageSize > 0 {
		opts = append(opts,
			grpc.MaxRecvMsgSize(config.MaxMessageSize),
			grpc.MaxSendMsgSize(config.MaxMessageSize),
		)
	}

	return opts
}

// newMetrics returns the Flight collectors on config.Registerer, or nil when
// metrics are disabled.
func newMetrics(config ServerConfig) *flight.Metrics {
	if config.Registerer == nil {
		return nil
	}
	return flight.NewMetrics(config.Registerer)
}
