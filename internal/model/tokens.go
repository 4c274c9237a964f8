package model

import "time"

// TokenKind : the "type" claim of a token
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

func (k TokenKind) Valid() bool {
	return k == KindAccess || k == KindRefresh
}

// Subject is the "sub" claim. It is an object rather than a plain string so the owning user id
// travels as a number.
type Subject struct {
	UserID int64 `json:"user_id"`
}

// IssuedToken : a freshly signed token together with its identifier and expiry
type IssuedToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// RevokedToken : a row of the revocation ledger
type RevokedToken struct {
	ID        int64     `db:"id"`
	JTI       string    `db:"jti"`
	TokenType TokenKind `db:"token_type"`
	Revoked   bool      `db:"revoked"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Access   IssuedToken
	Refresh  IssuedToken
	Username string
}

// RefreshResult carries the new access token; Refresh is set only when rotation is enabled.
type RefreshResult struct {
	Access  IssuedToken
	Refresh *IssuedToken
}
