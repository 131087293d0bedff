package flight

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/tabflight/internal/msgpack"
	"github.com/hugr-lab/tabflight/internal/recovery"
	"github.com/hugr-lab/tabflight/internal/serialize"
	"github.com/hugr-lab/tabflight/query"
)

// Action types served by DoAction.
const (
	ActionMetadata      = "metadata"
	ActionCount         = "count"
	ActionNominalValues = "nominal_values"
	ActionExplain       = "explain"
)

func actionTypes() []*flight.ActionType {
	return []*flight.ActionType{
		{Type: ActionMetadata, Description: "Column names, types and the row count. Body: {compress: bool}"},
		{Type: ActionCount, Description: "Number of rows matching a filter. Body: {filter}"},
		{Type: ActionNominalValues, Description: "Values of a nominal column. Body: {filter, feature, query}"},
		{Type: ActionExplain, Description: "SQL equivalent of a filter. Body: {filter}"},
	}
}

// CountResult is the body of a count action result.
type CountResult struct {
	Count int `msgpack:"count"`
}

// NominalValuesResult is the body of a nominal_values action result.
type NominalValuesResult struct {
	Values []string `msgpack:"values"`
}

// ExplainResult is the body of an explain action result.
type ExplainResult struct {
	SQL string `msgpack:"sql"`
}

// ListActions advertises the supported action types.
func (s *Server) ListActions(_ *flight.Empty, stream flight.FlightService_ListActionsServer) error {
	for _, at := range actionTypes() {
		if err := stream.Send(at); err != nil {
			return status.Errorf(codes.Internal, "failed to send action type: %v", err)
		}
	}
	return nil
}

// DoAction executes dataset actions. Bodies and results are MessagePack.
func (s *Server) DoAction(action *flight.Action, stream flight.FlightService_DoActionServer) error {
	ctx := EnrichContextMetadata(stream.Context())

	s.logger.Debug("DoAction called",
		"type", action.GetType(),
		"body_size", len(action.GetBody()),
		"trace_id", TraceIDFromContext(ctx),
	)

	body, err := decodeBody(action.GetBody())
	if err != nil {
		s.logger.Error("Failed to decode action body", "type", action.GetType(), "error", err)
		return status.Errorf(codes.InvalidArgument, "invalid action body: %v", err)
	}

	var result any
	switch action.GetType() {
	case ActionMetadata:
		return s.handleMetadata(ctx, body, stream)
	case ActionCount:
		result, err = s.handleCount(body)
	case ActionNominalValues:
		result, err = s.handleNominalValues(body)
	case ActionExplain:
		result, err = s.handleExplain(body)
	default:
		return status.Errorf(codes.Unimplemented, "unknown action type: %s", action.GetType())
	}
	if err != nil {
		return err
	}

	return s.sendResult(stream, result)
}

func decodeBody(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	return msgpack.DecodeMap(data)
}

func (s *Server) sendResult(stream flight.FlightService_DoActionServer, result any) error {
	data, err := msgpack.Encode(result)
	if err != nil {
		s.logger.Error("Failed to encode action result", "error", err)
		return status.Errorf(codes.Internal, "failed to encode result: %v", err)
	}
	if err := stream.Send(&flight.Result{Body: data}); err != nil {
		s.logger.Error("Failed to send action result", "error", err)
		return status.Errorf(codes.Internal, "failed to send result: %v", err)
	}
	return nil
}

// handleMetadata sends the dataset description. With {"compress": true}
// the MessagePack payload is zstd-compressed into a serialize.Frame.
func (s *Server) handleMetadata(_ context.Context, body map[string]any, stream flight.FlightService_DoActionServer) error {
	md := s.pipeline.Metadata()
	compress, _ := body["compress"].(bool)
	if !compress {
		return s.sendResult(stream, md)
	}

	data, err := msgpack.Encode(md)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to encode metadata: %v", err)
	}
	frame, err := serialize.CompressFrame(data)
	if err != nil {
		s.logger.Error("Failed to compress metadata", "error", err)
		return status.Errorf(codes.Internal, "failed to compress metadata: %v", err)
	}

	s.logger.Debug("Metadata compressed",
		"uncompressed_bytes", len(data),
		"compressed_bytes", len(frame),
	)
	if err := stream.Send(&flight.Result{Body: frame}); err != nil {
		return status.Errorf(codes.Internal, "failed to send result: %v", err)
	}
	return nil
}

func (s *Server) handleCount(body map[string]any) (any, error) {
	req, err := query.ParseCountRequest(body)
	if err != nil {
		return nil, statusError(err, "invalid count request")
	}
	return recovery.RecoverToValue(s.logger, "Count", func() (any, error) {
		return CountResult{Count: s.pipeline.Count(req.Filter)}, nil
	})
}

func (s *Server) handleNominalValues(body map[string]any) (any, error) {
	req, err := query.ParseNominalRequest(body)
	if err != nil {
		return nil, statusError(err, "invalid nominal_values request")
	}
	return recovery.RecoverToValue(s.logger, "NominalValues", func() (any, error) {
		return NominalValuesResult{
			Values: s.pipeline.NominalValues(req.Filter, req.Query, req.Feature),
		}, nil
	})
}

func (s *Server) handleExplain(body map[string]any) (any, error) {
	req, err := query.ParseCountRequest(body)
	if err != nil {
		return nil, statusError(err, "invalid explain request")
	}
	return ExplainResult{SQL: s.encoder.Encode(req.Filter)}, nil
}
