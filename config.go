package tabflight

import (
	"errors"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hugr-lab/tabflight/auth"
	"github.com/hugr-lab/tabflight/dataset"
)

// ServerConfig contains configuration for a tabflight Flight server.
type ServerConfig struct {
	// Dataset is the table served by the server.
	// REQUIRED: MUST NOT be nil.
	Dataset *dataset.Dataset

	// Name identifies the dataset in ListFlights and PATH descriptors.
	// OPTIONAL: defaults to "dataset".
	Name string

	// Auth provides authentication logic.
	// OPTIONAL: If nil, no authentication (all requests allowed).
	Auth auth.Authenticator

	// Allocator for Arrow memory management.
	// OPTIONAL: Uses memory.DefaultAllocator if nil.
	Allocator memory.Allocator

	// Logger for internal logging.
	// OPTIONAL: Uses slog.Default() if nil.
	// If Logger is provided, LogLevel is ignored.
	Logger *slog.Logger

	// LogLevel sets the level of the default text logger.
	// OPTIONAL: If nil, slog.Default() is used unchanged.
	LogLevel *slog.Level

	// MaxMessageSize sets maximum gRPC message size in bytes.
	// OPTIONAL: If 0, uses gRPC default (4MB).
	MaxMessageSize int

	// BatchSize is the number of rows per streamed record batch.
	// OPTIONAL: defaults to dataset.DefaultBatchSize.
	BatchSize int

	// Address is the server's public address (e.g., "grpc://localhost:50051").
	// OPTIONAL: If empty, FlightEndpoint locations will not include URI.
	Address string

	// Registerer receives the server's Prometheus collectors.
	// OPTIONAL: If nil, metrics are not collected.
	Registerer prometheus.Registerer
}

// Standard errors returned by the tabflight package.
var (
	// ErrUnauthorized indicates authentication failed.
	// Return this from Authenticator.Authenticate() for invalid tokens.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidConfig indicates ServerConfig validation failed.
	ErrInvalidConfig = errors.New("invalid server config")
)
