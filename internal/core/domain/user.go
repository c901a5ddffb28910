package domain

import (
	"strings"
	"time"
)

// Role is a capability tag attached to a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

var knownRoles = map[Role]struct{}{
	RoleUser:  {},
	RoleAdmin: {},
}

// ParseRole converts a role name into a Role. Matching is case-insensitive;
// names outside the closed set are rejected.
func ParseRole(name string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(name)))
	_, ok := knownRoles[r]
	return r, ok
}

// DefaultRoles is the role set granted on registration.
func DefaultRoles() []Role {
	return []Role{RoleUser}
}

// RoleNames returns the roles as plain strings, preserving order.
func RoleNames(roles []Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return names
}

// User models a registered account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	PasswordHash string    `json:"-"`
	Enabled      bool      `json:"enabled"`
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasRole reports whether the user has been granted r.
func (u *User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// Identity is a verified principal: who the caller is and what it was granted.
type Identity struct {
	Username string
	Roles    []Role
}

// HasAnyRole reports whether the identity holds at least one of roles.
func (i Identity) HasAnyRole(roles ...Role) bool {
	for _, want := range roles {
		for _, have := range i.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Claims are the assertions carried by a session token.
type Claims struct {
	ID        string
	Subject   string
	Roles     []Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Identity returns the principal the claims describe.
func (c *Claims) Identity() Identity {
	return Identity{Username: c.Subject, Roles: c.Roles}
}
