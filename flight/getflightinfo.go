package flight

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/tabflight/dataset"
	"github.com/hugr-lab/tabflight/internal/recovery"
	"github.com/hugr-lab/tabflight/query"
)

// GetFlightInfo plans a query without streaming it.
//
// A CMD descriptor carries the ticket JSON; a PATH descriptor holding the
// dataset name plans the unfiltered query. The response holds the projected
// Arrow schema, the ticket to pass to DoGet and the number of rows DoGet
// will return.
func (s *Server) GetFlightInfo(ctx context.Context, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	ctx = EnrichContextMetadata(ctx)

	s.logger.Debug("GetFlightInfo called",
		"type", desc.GetType(),
		"trace_id", TraceIDFromContext(ctx),
	)

	var ticket []byte
	switch desc.GetType() {
	case flight.DescriptorCMD:
		ticket = desc.GetCmd()
	case flight.DescriptorPATH:
		path := desc.GetPath()
		if len(path) != 1 || path[0] != s.name {
			return nil, status.Errorf(codes.NotFound, "flight not found: %v", path)
		}
		ticket = []byte("{}")
	default:
		return nil, status.Error(codes.InvalidArgument, "descriptor must be CMD or PATH type")
	}

	req, err := ParseTicket(ticket)
	if err != nil {
		s.logger.Error("Failed to decode descriptor command", "error", err)
		return nil, statusError(err, "invalid descriptor")
	}

	result, err := recovery.RecoverToValue(s.logger, "Run", func() (query.Result, error) {
		return s.pipeline.Run(req), nil
	})
	if err != nil {
		return nil, err
	}

	return &flight.FlightInfo{
		Schema:           flight.SerializeSchema(dataset.ArrowSchema(result.Schema), s.allocator),
		FlightDescriptor: desc,
		Endpoint:         []*flight.FlightEndpoint{s.endpoint(ticket)},
		TotalRecords:     int64(len(result.Rows)),
		TotalBytes:       -1,
	}, nil
}
