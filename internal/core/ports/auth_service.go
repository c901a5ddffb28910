package ports

import (
	"context"
	"time"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// TokenTypeBearer is the token type label returned on login.
const TokenTypeBearer = "Bearer"

// RegisterInput carries the data needed to create an account.
// An empty PhoneNumber means the user has none.
type RegisterInput struct {
	Name        string
	Surname     string
	Username    string
	Email       string
	Password    string
	PhoneNumber string
}

// Confirmation acknowledges a successful registration.
type Confirmation struct {
	Message string
}

// AuthResult is returned once by a successful login.
type AuthResult struct {
	Token       string
	TokenType   string
	ExpiresAt   time.Time
	ID          string
	Username    string
	Email       string
	Roles       []string
	Name        string
	Surname     string
	PhoneNumber string
}

// AuthService defines the registration, login and current-user use cases.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*Confirmation, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	// CurrentUser resolves the identity carried by ctx (see package session).
	CurrentUser(ctx context.Context) (*domain.User, error)
}
