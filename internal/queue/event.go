// Package queue defines message payloads exchanged over the message broker.
package queue

// Auth event types published to the auth.events queue.
const (
	EventLoginSuccess   = "login.success"
	EventLoginFailure   = "login.failure"
	EventRegistered     = "user.registered"
	EventPasswordChange = "password.changed"
)

// AuthEvent is published after authentication-relevant operations.  Delivery
// is fire-and-forget: consumers get enough context for audit trails and
// alerting without querying the primary database, and a broker outage never
// fails the request that produced the event.
type AuthEvent struct {
	EventID  string `json:"event_id"`
	Type     string `json:"type"`
	UserID   uint64 `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Provider string `json:"provider,omitempty"`
	IP       string `json:"ip,omitempty"`
	At       string `json:"at"`
}
