// Package auth authenticates tabflight clients by bearer token.
//
// The server reads the token from the "authorization" gRPC metadata key,
// resolves it to an identity through an Authenticator, and stores that
// identity in the request context for logging. A server without an
// Authenticator accepts every request.
package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrInvalidAuthHeader is returned when the authorization header does not
	// use the Bearer scheme.
	ErrInvalidAuthHeader = errors.New("authorization header must use Bearer scheme")

	// ErrTokenIsEmpty is returned when the bearer token is empty.
	ErrTokenIsEmpty = errors.New("authorization token is empty")

	// ErrUnauthenticated is returned when a token is rejected.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Authenticator resolves a bearer token to a client identity.
// Implementations must be safe for concurrent use.
type Authenticator interface {
	// Authenticate returns the identity owning token, or an error if the
	// token is not accepted.
	Authenticate(ctx context.Context, token string) (identity string, err error)
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context, token string) (string, error)

// Authenticate calls f(ctx, token).
func (f AuthenticatorFunc) Authenticate(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// Anonymous is the identity reported by NoAuth.
const Anonymous = "anonymous"

// NoAuth returns an Authenticator accepting any token as Anonymous.
// Intended for local development only.
func NoAuth() Authenticator {
	return AuthenticatorFunc(func(context.Context, string) (string, error) {
		return Anonymous, nil
	})
}

type identityKey struct{}

// IdentityFromContext returns the identity stored by WithIdentity, or "" for
// unauthenticated requests.
func IdentityFromContext(ctx context.Context) string {
	id, _ := ctx.Value(identityKey{}).(string)
	return id
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

const bearerScheme = "bearer"

// TokenFromAuthorizationHeader extracts the token from "Bearer <token>".
// The scheme is matched case-insensitively and surrounding spaces are
// ignored.
func TokenFromAuthorizationHeader(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !strings.EqualFold(scheme, bearerScheme) {
		return "", ErrInvalidAuthHeader
	}
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return "", ErrTokenIsEmpty
	}
	return token, nil
}

// ValidateToken authenticates token and returns ctx with the resulting
// identity attached. Any authenticator error is reported as
// ErrUnauthenticated.
func ValidateToken(ctx context.Context, token string, authenticator Authenticator) (context.Context, error) {
	if token == "" {
		return ctx, ErrTokenIsEmpty
	}
	identity, err := authenticator.Authenticate(ctx, token)
	if err != nil {
		return ctx, ErrUnauthenticated
	}
	return WithIdentity(ctx, identity), nil
}
