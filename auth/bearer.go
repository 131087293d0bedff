package auth

import (
	"context"
	"crypto/subtle"
)

// BearerAuth creates an Authenticator from a token validation function.
//
// Example:
//
//	a := auth.BearerAuth(func(token string) (string, error) {
//	    user, err := lookupToken(token)
//	    if err != nil {
//	        return "", tabflight.ErrUnauthorized
//	    }
//	    return user.ID, nil
//	})
func BearerAuth(validate func(token string) (identity string, err error)) Authenticator {
	return AuthenticatorFunc(func(ctx context.Context, token string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return validate(token)
	})
}

// StaticToken creates an Authenticator accepting a single shared token,
// attributing every request to identity. An empty token accepts nothing.
func StaticToken(token, identity string) Authenticator {
	want := []byte(token)
	return AuthenticatorFunc(func(_ context.Context, got string) (string, error) {
		if len(want) == 0 || subtle.ConstantTimeCompare(want, []byte(got)) != 1 {
			return "", ErrUnauthenticated
		}
		return identity, nil
	})
}
