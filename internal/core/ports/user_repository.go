package ports

import (
	"context"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
//
// The Exists* lookups are a pre-check only. Implementations must back
// username, email and phone number with unique constraints and have Save
// report a violation as domain.ErrDuplicateUsername, ErrDuplicateEmail or
// ErrDuplicatePhoneNumber.
type UserRepository interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error)
	// FindByUsername returns domain.ErrUserNotFound when no account matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
}

// Transactor runs fn as one atomic unit of work. fn must use the context it
// receives for every store call that belongs to the transaction. The work is
// committed when fn returns nil and rolled back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
