package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"agromind-server/config"
	"agromind-server/internal/model"
)

// RevocationRepository is the durable revocation ledger.
type RevocationRepository struct {
	*config.Database
}

func NewRevocationRepository(database *config.Database) *RevocationRepository {
	return &RevocationRepository{database}
}

// Revoke records jti as revoked. Revoking the same jti twice is not an error.
func (r *RevocationRepository) Revoke(ctx context.Context, jti string, kind model.TokenKind, expiresAt time.Time) error {
	_, err := r.RevokeOnce(ctx, jti, kind, expiresAt)
	return err
}

// RevokeOnce records jti and reports whether the row was inserted by this call.
// The unique index on jti makes the insert the single point of decision between concurrent callers.
func (r *RevocationRepository) RevokeOnce(ctx context.Context, jti string, kind model.TokenKind, expiresAt time.Time) (bool, error) {
	const op = "repository.RevocationRepository.RevokeOnce"

	if jti == "" {
		return false, fmt.Errorf("%s: %w: empty jti", op, model.ErrInvalidToken)
	}

	query := `
	INSERT INTO revoked_tokens (jti, token_type, revoked, expires_at)
	VALUES ($1, $2, TRUE, $3)
	ON CONFLICT (jti) DO NOTHING
	`
	res, err := r.DB.ExecContext(ctx, query, jti, kind, expiresAt.UTC())
	if err != nil {
		return false, storeError(op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, storeError(op, err)
	}
	return n == 1, nil
}

// Lookup returns the ledger entry of jti or nil when it was never revoked.
func (r *RevocationRepository) Lookup(ctx context.Context, jti string) (*model.RevokedToken, error) {
	const op = "repository.RevocationRepository.Lookup"

	query := `
	SELECT id, jti, token_type, revoked, expires_at, created_at
	FROM revoked_tokens
	WHERE jti = $1
	`

	var entry model.RevokedToken
	if err := r.DB.GetContext(ctx, &entry, query, jti); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storeError(op, err)
	}
	return &entry, nil
}

// IsRevoked : an empty jti counts as revoked
func (r *RevocationRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return true, nil
	}

	entry, err := r.Lookup(ctx, jti)
	if err != nil {
		return false, err
	}
	return entry != nil && entry.Revoked, nil
}

// PurgeExpired deletes entries of tokens that expired before the given instant.
// Such tokens fail decoding on their own, so dropping them does not revive anything.
func (r *RevocationRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	const op = "repository.RevocationRepository.PurgeExpired"

	res, err := r.DB.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, before.UTC())
	if err != nil {
		return 0, storeError(op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeError(op, err)
	}
	return n, nil
}
