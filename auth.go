package tabflight

import (
	"context"

	"github.com/hugr-lab/tabflight/auth"
)

// Authenticator resolves bearer tokens to client identities.
type Authenticator = auth.Authenticator

// BearerAuth creates an Authenticator from a validation function.
//
// Example:
//
//	a := tabflight.BearerAuth(func(token string) (string, error) {
//	    if token != os.Getenv("API_TOKEN") {
//	        return "", tabflight.ErrUnauthorized
//	    }
//	    return "api-client", nil
//	})
func BearerAuth(validate func(token string) (identity string, err error)) Authenticator {
	return auth.BearerAuth(validate)
}

// StaticToken returns an Authenticator accepting one shared token.
func StaticToken(token, identity string) Authenticator {
	return auth.StaticToken(token, identity)
}

// NoAuth returns an Authenticator accepting every request.
func NoAuth() Authenticator {
	return auth.NoAuth()
}

// IdentityFromContext returns the authenticated identity of a request, or ""
// when the server runs without authentication.
func IdentityFromContext(ctx context.Context) string {
	return auth.IdentityFromContext(ctx)
}
