package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
	"github.com/99minutos/identity-service/internal/core/session"
)

const registeredMessage = "User registered successfully!"

// AuthService implements registration, login and current-user lookup.
type AuthService struct {
	repo   ports.UserRepository
	tx     ports.Transactor
	hasher ports.PasswordHasher
	authn  ports.Authenticator
	tokens ports.TokenIssuer
	log    zerolog.Logger

	throttle    ports.LoginThrottle
	maxFailures int64
	audit       ports.AuditPublisher

	now func() time.Time
}

// Option configures optional AuthService collaborators.
type Option func(*AuthService)

// WithLoginThrottle rejects logins for a username once more than maxFailures
// attempts have been made since its last successful login.
func WithLoginThrottle(t ports.LoginThrottle, maxFailures int64) Option {
	return func(s *AuthService) {
		if t != nil && maxFailures > 0 {
			s.throttle = t
			s.maxFailures = maxFailures
		}
	}
}

// WithAuditPublisher sends authentication events to p.
func WithAuditPublisher(p ports.AuditPublisher) Option {
	return func(s *AuthService) { s.audit = p }
}

func NewAuthService(
	repo ports.UserRepository,
	tx ports.Transactor,
	hasher ports.PasswordHasher,
	authn ports.Authenticator,
	tokens ports.TokenIssuer,
	log zerolog.Logger,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		repo:   repo,
		tx:     tx,
		hasher: hasher,
		authn:  authn,
		tokens: tokens,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new account with the default role set. Uniqueness
// checks and the insert run in one transaction; the store's unique indexes
// settle any race the checks cannot see.
//
// A caller that sees a transport error after the commit and retries will get
// ErrDuplicateUsername back, since the first attempt did succeed.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.Confirmation, error) {
	in = normalizeRegisterInput(in)
	if err := validateRegisterInput(in); err != nil {
		return nil, err
	}

	var created *domain.User
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ensureUnique(txCtx, in); err != nil {
			return err
		}

		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		now := s.now().UTC()
		created, err = s.repo.Save(txCtx, &domain.User{
			Name:         in.Name,
			Surname:      in.Surname,
			Username:     in.Username,
			Email:        in.Email,
			PhoneNumber:  in.PhoneNumber,
			PasswordHash: hash,
			Enabled:      true,
			Roles:        domain.DefaultRoles(),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		return err
	})
	if err != nil {
		if domain.IsDuplicate(err) || errors.Is(err, domain.ErrInvalidInput) {
			s.log.Info().Err(err).Str("username", in.Username).Msg("registration rejected")
			return nil, err
		}
		s.log.Error().Err(err).Str("username", in.Username).Msg("failed to register user")
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	s.publish(ctx, domain.EventRegistered, created.Username)

	return &ports.Confirmation{Message: registeredMessage}, nil
}

func (s *AuthService) ensureUnique(ctx context.Context, in ports.RegisterInput) error {
	taken, err := s.repo.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return domain.ErrDuplicateUsername
	}

	taken, err = s.repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return domain.ErrDuplicateEmail
	}

	if in.PhoneNumber == "" {
		return nil
	}
	taken, err = s.repo.ExistsByPhoneNumber(ctx, in.PhoneNumber)
	if err != nil {
		return fmt.Errorf("check phone number: %w", err)
	}
	if taken {
		return domain.ErrDuplicatePhoneNumber
	}
	return nil
}

// Login verifies credentials, issues a session token and returns it together
// with the stored profile. Unknown usernames and wrong passwords both yield
// domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if s.overLimit(ctx, username) {
		s.log.Warn().Str("username", username).Msg("login throttled")
		s.publish(ctx, domain.EventLoginThrottled, username)
		return nil, domain.ErrTooManyAttempts
	}

	identity, err := s.authn.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.log.Info().Str("username", username).Msg("login failed")
			s.publish(ctx, domain.EventLoginFailed, username)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	token, expiresAt, err := s.tokens.Issue(*identity)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	user, err := s.repo.FindByUsername(ctx, identity.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error().Str("username", identity.Username).Msg("authenticated user has no stored profile")
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("login: load profile: %w", err)
	}

	s.resetFailures(ctx, username)
	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("login succeeded")
	s.publish(ctx, domain.EventLoginSucceeded, user.Username)

	return &ports.AuthResult{
		Token:       token,
		TokenType:   ports.TokenTypeBearer,
		ExpiresAt:   expiresAt,
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Roles:       domain.RoleNames(identity.Roles),
		Name:        user.Name,
		Surname:     user.Surname,
		PhoneNumber: user.PhoneNumber,
	}, nil
}

// CurrentUser loads the profile of the identity carried by ctx.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	id, ok := session.IdentityFrom(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.repo.FindByUsername(ctx, id.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Warn().Str("username", id.Username).Msg("token subject no longer resolves to a user")
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("current user: %w", err)
	}
	return user, nil
}

// overLimit counts this attempt and reports whether it exceeds the limit.
// The attempt is counted before the password is checked, so parallel
// attempts cannot all slip under the limit; a successful login clears the
// count again. Store errors are logged and the attempt is allowed.
func (s *AuthService) overLimit(ctx context.Context, username string) bool {
	if s.throttle == nil {
		return false
	}
	n, err := s.throttle.CountAttempt(ctx, username)
	if err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("throttle check failed, allowing login")
		return false
	}
	return n > s.maxFailures
}

func (s *AuthService) resetFailures(ctx context.Context, username string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Reset(ctx, username); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("failed to reset login failures")
	}
}

func (s *AuthService) publish(ctx context.Context, typ domain.AuthEventType, username string) {
	if s.audit == nil {
		return
	}
	meta := session.RequestMetaFrom(ctx)
	s.audit.Publish(domain.AuthEvent{
		Type:       typ,
		Username:   username,
		OccurredAt: s.now().UTC(),
		RequestID:  meta.RequestID,
		RemoteAddr: meta.RemoteAddr,
	})
}

func normalizeRegisterInput(in ports.RegisterInput) ports.RegisterInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Surname = strings.TrimSpace(in.Surname)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	return in
}

func validateRegisterInput(in ports.RegisterInput) error {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"name", in.Name},
		{"surname", in.Surname},
		{"username", in.Username},
		{"email", in.Email},
		{"password", in.Password},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}
