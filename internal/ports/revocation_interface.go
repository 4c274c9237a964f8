package ports

import (
	"context"
	"time"

	"agromind-server/internal/model"
	"agromind-server/internal/security"
)

// RevocationStore : SQL layer of the revocation ledger
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, kind model.TokenKind, expiresAt time.Time) error
	RevokeOnce(ctx context.Context, jti string, kind model.TokenKind, expiresAt time.Time) (bool, error)
	Lookup(ctx context.Context, jti string) (*model.RevokedToken, error)
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// RevocationLedger is what the auth service and the access guard consult.
// Both the plain store and its Redis cache implement it.
type RevocationLedger interface {
	Revoke(ctx context.Context, jti string, kind model.TokenKind, expiresAt time.Time) error
	// RevokeOnce reports whether this call recorded jti. Of concurrent callers exactly one gets true.
	RevokeOnce(ctx context.Context, jti string, kind model.TokenKind, expiresAt time.Time) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type TokenCodec interface {
	Issue(kind model.TokenKind, subject model.Subject) (model.IssuedToken, error)
	Decode(token string) (*security.Claims, error)
}
