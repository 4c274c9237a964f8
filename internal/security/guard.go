package security

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"agromind-server/internal/model"
	"agromind-server/internal/util"
)

// RevocationChecker is the read side of the revocation ledger.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// UserFinder resolves the subject of a token.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// AccessGuard authenticates bearer tokens on protected endpoints. It never mutates state.
type AccessGuard struct {
	codec  *TokenCodec
	ledger RevocationChecker
	users  UserFinder
	log    *slog.Logger
}

func NewAccessGuard(codec *TokenCodec, ledger RevocationChecker, users UserFinder, log *slog.Logger) *AccessGuard {
	return &AccessGuard{
		codec:  codec,
		ledger: ledger,
		users:  users,
		log:    log,
	}
}

// Authenticate decodes token, checks it is an unrevoked access token and resolves its user.
//
// Errors:
//   - model.ErrUnauthenticated for any decode failure, a non-access token or a revoked jti
//   - model.ErrUserNotFound when the subject no longer exists
//   - model.ErrStoreUnavailable when the ledger or the user store cannot be queried
func (g *AccessGuard) Authenticate(ctx context.Context, token string) (*model.User, *Claims, error) {
	const op = "security.AccessGuard.Authenticate"

	log := g.log.With(slog.String("op", op))

	claims, err := g.codec.Decode(token)
	if err != nil {
		log.Debug("token rejected", util.Err(err))
		return nil, nil, fmt.Errorf("%w: %w", model.ErrUnauthenticated, err)
	}

	if claims.Type != model.KindAccess {
		return nil, nil, fmt.Errorf("%w: %w", model.ErrUnauthenticated, model.ErrWrongTokenKind)
	}

	revoked, err := g.ledger.IsRevoked(ctx, claims.ID)
	if err != nil {
		log.Error("revocation check failed", util.Err(err))
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if revoked {
		log.Info("revoked token presented", slog.String("jti", claims.ID))
		return nil, nil, fmt.Errorf("%w: %w", model.ErrUnauthenticated, model.ErrTokenRevoked)
	}

	if claims.Subject.UserID <= 0 {
		return nil, nil, fmt.Errorf("%w: %w: missing user_id", model.ErrUnauthenticated, model.ErrInvalidToken)
	}

	user, err := g.users.FindByID(ctx, claims.Subject.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			log.Warn("token subject no longer exists", slog.Int64("user_id", claims.Subject.UserID))
			return nil, nil, model.ErrUserNotFound
		}
		log.Error("failed to resolve user", util.Err(err))
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, claims, nil
}
