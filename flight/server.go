// Package flight provides the Arrow Flight RPC handlers for a tabflight dataset.
package flight

import (
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/tabflight/dataset"
	"github.com/hugr-lab/tabflight/filter"
	"github.com/hugr-lab/tabflight/query"
)

// Server implements the Flight service handlers over one query pipeline.
// Embeds BaseFlightServer for forward compatibility with protocol changes.
type Server struct {
	flight.BaseFlightServer

	pipeline  *query.Pipeline
	allocator memory.Allocator
	logger    *slog.Logger
	metrics   *Metrics
	encoder   filter.Encoder
	name      string
	address   string // public address for FlightEndpoint locations
	batchSize int
}

// Options tunes a Server. Zero values select defaults.
type Options struct {
	// Name identifies the dataset in ListFlights descriptors.
	Name string

	// Address is advertised in FlightEndpoint locations when set.
	Address string

	// BatchSize is the number of rows per streamed record batch.
	BatchSize int

	// Metrics receives request and row counters. Nil disables metrics.
	Metrics *Metrics

	// Encoder renders filters for the explain action.
	// Defaults to a DuckDB encoder over the dataset schema.
	Encoder filter.Encoder
}

// NewServer creates a Flight server answering queries from p.
func NewServer(p *query.Pipeline, allocator memory.Allocator, logger *slog.Logger, opts Options) *Server {
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = dataset.DefaultBatchSize
	}
	if opts.Name == "" {
		opts.Name = "dataset"
	}
	if opts.Encoder == nil {
		opts.Encoder = filter.NewDuckDBEncoder(p.Schema(), nil)
	}
	return &Server{
		pipeline:  p,
		allocator: allocator,
		logger:    logger,
		metrics:   opts.Metrics,
		encoder:   opts.Encoder,
		name:      opts.Name,
		address:   opts.Address,
		batchSize: opts.BatchSize,
	}
}

// Name returns the dataset name served by s.
func (s *Server) Name() string { return s.name }

// Pipeline returns the query pipeline served by s.
func (s *Server) Pipeline() *query.Pipeline { return s.pipeline }

// RegisterFlightServer registers the Flight service on the provided gRPC server.
func RegisterFlightServer(grpcServer *grpc.Server, flightServer *Server) {
	flight.RegisterFlightServiceServer(grpcServer, flightServer)
}

// endpoint builds the single FlightEndpoint for a ticket.
func (s *Server) endpoint(ticket []byte) *flight.FlightEndpoint {
	ep := &flight.FlightEndpoint{
		Ticket: &flight.Ticket{Ticket: ticket},
	}
	if s.address != "" {
		ep.Location = []*flight.Location{{Uri: s.address}}
	}
	return ep
}
