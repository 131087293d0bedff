package flight

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey int

const (
	requestMetaKey contextKey = iota
)

// Metadata header keys for authorization and observability.
const (
	// HeaderAuthorization is the gRPC metadata header for authorization token.
	HeaderAuthorization = "authorization"
	// HeaderTraceID is the gRPC metadata header for distributed trace identifier.
	HeaderTraceID = "tabflight-trace-id"
	// HeaderSessionID is the gRPC metadata header for client session identifier.
	HeaderSessionID = "tabflight-client-session-id"
)

// ContextMeta holds request metadata extracted from gRPC headers.
type ContextMeta struct {
	Authorization string
	TraceID       string
	SessionID     string
}

// WithContextMeta stores meta in ctx.
func WithContextMeta(ctx context.Context, meta ContextMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey, &meta)
}

// MetaFromContext returns the stored request metadata, or nil.
func MetaFromContext(ctx context.Context) *ContextMeta {
	meta, ok := ctx.Value(requestMetaKey).(*ContextMeta)
	if !ok {
		return nil
	}
	return meta
}

// AuthorizationFromContext retrieves the authorization header from context.
// Returns empty string if not set.
func AuthorizationFromContext(ctx context.Context) string {
	meta := MetaFromContext(ctx)
	if meta == nil {
		return ""
	}
	return meta.Authorization
}

// TraceIDFromContext returns the trace ID from context, or empty string if not set.
func TraceIDFromContext(ctx context.Context) string {
	meta := MetaFromContext(ctx)
	if meta == nil {
		return ""
	}
	return meta.TraceID
}

// SessionIDFromContext returns the session ID from context, or empty string if not set.
func SessionIDFromContext(ctx context.Context) string {
	meta := MetaFromContext(ctx)
	if meta == nil {
		return ""
	}
	return meta.SessionID
}

// EnrichContextMetadata extracts metadata from gRPC context and returns a
// new context with the metadata stored. Requests without a trace ID are
// assigned a random one. If the context is already enriched, it is returned
// unchanged.
func EnrichContextMetadata(ctx context.Context) context.Context {
	if MetaFromContext(ctx) != nil {
		return ctx
	}

	var meta ContextMeta
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(HeaderAuthorization); len(values) != 0 {
			meta.Authorization = values[0]
		}
		if values := md.Get(HeaderTraceID); len(values) > 0 {
			meta.TraceID = values[0]
		}
		if values := md.Get(HeaderSessionID); len(values) > 0 {
			meta.SessionID = values[0]
		}
	}
	if meta.TraceID == "" {
		meta.TraceID = uuid.NewString()
	}

	return WithContextMeta(ctx, meta)
}
