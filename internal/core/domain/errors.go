package domain

import "errors"

var (
	ErrDuplicateUsername    = errors.New("username is already taken")
	ErrDuplicateEmail       = errors.New("email is already in use")
	ErrDuplicatePhoneNumber = errors.New("phone number is already in use")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrProfileNotFound      = errors.New("user profile not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthenticated      = errors.New("no authenticated user")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTooManyAttempts      = errors.New("too many failed login attempts")
)

// IsDuplicate reports whether err is one of the uniqueness violations.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateUsername) ||
		errors.Is(err, ErrDuplicateEmail) ||
		errors.Is(err, ErrDuplicatePhoneNumber)
}
