package flight

import (
	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/tabflight/dataset"
)

// ListFlights returns a single FlightInfo describing the whole dataset.
// The descriptor is the PATH [name]; its ticket selects every row.
// Criteria are ignored.
func (s *Server) ListFlights(criteria *flight.Criteria, stream flight.FlightService_ListFlightsServer) error {
	s.logger.Debug("ListFlights called", "criteria_size", len(criteria.GetExpression()))

	info := &flight.FlightInfo{
		Schema: flight.SerializeSchema(dataset.ArrowSchema(s.pipeline.Schema()), s.allocator),
		FlightDescriptor: &flight.FlightDescriptor{
			Type: flight.DescriptorPATH,
			Path: []string{s.name},
		},
		Endpoint:     []*flight.FlightEndpoint{s.endpoint([]byte("{}"))},
		TotalRecords: int64(s.pipeline.Dataset().Len()),
		TotalBytes:   -1,
	}

	if err := stream.Send(info); err != nil {
		s.logger.Error("Failed to send FlightInfo", "error", err)
		return status.Errorf(codes.Internal, "failed to send flight info: %v", err)
	}
	return nil
}
