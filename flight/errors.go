package flight

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/tabflight/filter"
)

// statusError maps a request error to a gRPC status. Errors that already
// carry a status are returned unchanged.
func statusError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrInvalidTicket), errors.Is(err, filter.ErrValidation):
		return status.Errorf(codes.InvalidArgument, "%s: %v", msg, err)
	default:
		return status.Errorf(codes.Internal, "%s: %v", msg, err)
	}
}
