package ports

import (
	"context"
	"time"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// PasswordHasher hashes and verifies passwords one-way.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// Authenticator verifies a username/password pair. Every kind of mismatch
// is reported as domain.ErrInvalidCredentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*domain.Identity, error)
}

// TokenIssuer mints and verifies signed session tokens.
type TokenIssuer interface {
	Issue(identity domain.Identity) (token string, expiresAt time.Time, err error)
	Verify(token string) (*domain.Claims, error)
}

// LoginThrottle counts login attempts per submitted username. CountAttempt
// must increment atomically and return the new count, so concurrent
// attempts never observe the same value.
type LoginThrottle interface {
	CountAttempt(ctx context.Context, username string) (int64, error)
	Reset(ctx context.Context, username string) error
}
