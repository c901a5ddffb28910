package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// CredentialAuthenticator implements ports.Authenticator against the user
// store. Unknown usernames are verified against a dummy hash so that they
// take as long as a wrong password for a real account.
type CredentialAuthenticator struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

func NewCredentialAuthenticator(repo ports.UserRepository, hasher ports.PasswordHasher) *CredentialAuthenticator {
	return &CredentialAuthenticator{repo: repo, hasher: hasher}
}

func (a *CredentialAuthenticator) Authenticate(ctx context.Context, username, password string) (*domain.Identity, error) {
	user, err := a.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			a.hasher.Verify(password, a.dummy())
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if !a.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	// Disabled accounts are checked after verification and look the same as
	// a bad password to the caller.
	if !user.Enabled {
		return nil, domain.ErrInvalidCredentials
	}

	return &domain.Identity{Username: user.Username, Roles: user.Roles}, nil
}

func (a *CredentialAuthenticator) dummy() string {
	a.dummyOnce.Do(func() {
		h, err := a.hasher.Hash("dummy-password-for-unknown-users")
		if err == nil {
			a.dummyHash = h
		}
	})
	return a.dummyHash
}
