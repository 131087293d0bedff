// Package recovery converts panics inside query execution into gRPC errors,
// so a bad request can fail without taking the server down.
package recovery

import (
	"log/slog"
	"runtime/debug"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RecoverToError runs fn and turns a panic into a codes.Internal error.
//
// Example:
//
//	err := recovery.RecoverToError(logger, "DoGet", func() error {
//	    return stream.Send(result)
//	})
func RecoverToError(logger *slog.Logger, operation string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(logger, operation, r)
			err = status.Errorf(codes.Internal, "%s panicked: %v", operation, r)
		}
	}()

	return fn()
}

// RecoverToValue is RecoverToError for functions returning a value.
// On panic the zero value is returned with a codes.Internal error.
//
// Example:
//
//	res, err := recovery.RecoverToValue(logger, "Run", func() (query.Result, error) {
//	    return pipeline.Run(req), nil
//	})
func RecoverToValue[T any](logger *slog.Logger, operation string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(logger, operation, r)
			var zero T
			result = zero
			err = status.Errorf(codes.Internal, "%s panicked: %v", operation, r)
		}
	}()

	return fn()
}

func logPanic(logger *slog.Logger, operation string, r any) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("Panic recovered",
		"operation", operation,
		"panic", r,
		"stack", string(debug.Stack()),
	)
}
