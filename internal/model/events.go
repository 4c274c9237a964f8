package model

import "time"

type EventType string

const (
	EventUserRegistered EventType = "user.registered"
	EventUserDeleted    EventType = "user.deleted"
	EventTokenRevoked   EventType = "token.revoked"
)

// AuthEvent is published to the broker after a successful state change.
type AuthEvent struct {
	Type       EventType `json:"type"`
	UserID     int64     `json:"user_id,omitempty"`
	JTI        string    `json:"jti,omitempty"`
	TokenType  TokenKind `json:"token_type,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
