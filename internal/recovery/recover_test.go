package recovery

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecoverToError(t *testing.T) {
	logger := discardLogger()

	if err := RecoverToError(logger, "ok", func() error { return nil }); err != nil {
		t.Errorf("RecoverToError() error = %v, want nil", err)
	}

	sentinel := errors.New("boom")
	if err := RecoverToError(logger, "fail", func() error { return sentinel }); !errors.Is(err, sentinel) {
		t.Errorf("RecoverToError() error = %v, want %v", err, sentinel)
	}

	err := RecoverToError(logger, "Run", func() error {
		var rows []int
		_ = rows[3]
		return nil
	})
	if status.Code(err) != codes.Internal {
		t.Errorf("status code = %v, want %v", status.Code(err), codes.Internal)
	}
}

func TestRecoverToValue(t *testing.T) {
	logger := discardLogger()

	got, err := RecoverToValue(logger, "ok", func() (int, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Errorf("RecoverToValue() = %d, %v, want 7, nil", got, err)
	}

	got, err = RecoverToValue(logger, "Run", func() (int, error) {
		panic("bad row")
	})
	if got != 0 {
		t.Errorf("RecoverToValue() = %d, want zero value", got)
	}
	if status.Code(err) != codes.Internal {
		t.Errorf("status code = %v, want %v", status.Code(err), codes.Internal)
	}
}

func TestRecoverNilLogger(t *testing.T) {
	err := RecoverToError(nil, "Run", func() error { panic("x") })
	if err == nil {
		t.Fatal("RecoverToError() error = nil, want error")
	}
}
