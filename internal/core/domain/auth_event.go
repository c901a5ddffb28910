package domain

import "time"

// AuthEventType classifies an entry of the security audit trail.
type AuthEventType string

const (
	EventRegistered     AuthEventType = "registered"
	EventLoginSucceeded AuthEventType = "login_succeeded"
	EventLoginFailed    AuthEventType = "login_failed"
	EventLoginThrottled AuthEventType = "login_throttled"
)

// AuthEvent records an authentication-relevant action for auditing.
type AuthEvent struct {
	Type       AuthEventType
	Username   string
	OccurredAt time.Time
	RequestID  string // optional
	RemoteAddr string // optional
}
