// Package session carries request-scoped authentication state through a
// context.Context. Nothing here is process-wide: each request builds its own
// context and passes it down the call chain.
package session

import (
	"context"

	"github.com/99minutos/identity-service/internal/core/domain"
)

type ctxKey int

const (
	identityKey ctxKey = iota
	requestMetaKey
)

// RequestMeta describes the request a context belongs to. Used for auditing.
type RequestMeta struct {
	RequestID  string
	RemoteAddr string
}

// WithIdentity returns a copy of ctx carrying the verified identity.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity stored in ctx, if any.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	if !ok || id.Username == "" {
		return domain.Identity{}, false
	}
	return id, true
}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey, meta)
}

// RequestMetaFrom returns the request metadata stored in ctx. The zero value
// is returned when none was set.
func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey).(RequestMeta)
	return meta
}
