package auth

import (
	"context"
	"errors"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the resolved acting principal. Role is one of the marketplace
// roles (CLIENT, WRITER, ADMIN); the engine trusts this input.
type Identity struct {
	ID    int64
	Email string
	Name  string
	Role  string
}

type ctxKeyIdentity struct{}

func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(ctxKeyIdentity{}).(Identity)
	return v, ok
}
