package events

import (
	"time"

	"github.com/spec-kit/hospital-records/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPrincipalRegistered EventType = "principal_registered"
	EventLoginSucceeded      EventType = "login_succeeded"
	EventLoginFailed         EventType = "login_failed"
	EventRequestRejected     EventType = "request_rejected"
)

// Event represents an authentication event emitted by the core.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// PrincipalRegisteredPayload payload.
type PrincipalRegisteredPayload struct {
	Role domain.Role `json:"role"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// LoginFailedPayload payload. Reason is for audit only and never returned to clients.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// RequestRejectedPayload payload.
type RequestRejectedPayload struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}
