package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"agromind-server/internal/metrics"
	"agromind-server/internal/model"
	"agromind-server/internal/ports"
	"agromind-server/internal/util"

	"github.com/jmoiron/sqlx"
)

type AuthenticationService struct {
	db       sqlx.ExtContext
	users    ports.UserRepository
	ledger   ports.RevocationLedger
	codec    ports.TokenCodec
	hasher   ports.PasswordHasher
	notifier ports.Notifier
	metrics  *metrics.Metrics
	log      *slog.Logger
	rotate   bool
}

type AuthenticationDeps struct {
	DB       sqlx.ExtContext
	Users    ports.UserRepository
	Ledger   ports.RevocationLedger
	Codec    ports.TokenCodec
	Hasher   ports.PasswordHasher
	Notifier ports.Notifier
	Metrics  *metrics.Metrics
	Log      *slog.Logger
	// RotateRefreshTokens makes Refresh revoke the presented refresh token and return a new one.
	RotateRefreshTokens bool
}

func NewAuthenticationService(deps AuthenticationDeps) *AuthenticationService {
	return &AuthenticationService{
		db:       deps.DB,
		users:    deps.Users,
		ledger:   deps.Ledger,
		codec:    deps.Codec,
		hasher:   deps.Hasher,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		log:      deps.Log,
		rotate:   deps.RotateRefreshTokens,
	}
}

// Register creates a user and returns its id.
// A taken email fails with model.ErrDuplicateEmail and leaves the store unchanged.
func (s *AuthenticationService) Register(ctx context.Context, username, email, password string) (id int64, err error) {
	const op = "service.AuthenticationService.Register"

	log := s.log.With(slog.String("op", op))
	defer func() { s.metrics.ObserveAuth("register", err) }()

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.users.CreateUser(ctx, s.db, &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			log.Info("email already registered")
		} else {
			log.Error("failed to create user", util.Err(err))
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("user_id", created.ID))
	s.publish(ctx, model.AuthEvent{Type: model.EventUserRegistered, UserID: created.ID})

	return created.ID, nil
}

// Login checks the credentials and issues an access and a refresh token.
// Unknown email and wrong password fail with the same model.ErrInvalidCredentials.
func (s *AuthenticationService) Login(ctx context.Context, email, password string) (res *model.LoginResult, err error) {
	const op = "service.AuthenticationService.Login"

	log := s.log.With(slog.String("op", op))
	defer func() { s.metrics.ObserveAuth("login", err) }()

	user, err := s.users.FindByEmail(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			s.hasher.VerifyDummy(password)
			log.Info("login failed")
			return nil, fmt.Errorf("%s: %w", op, model.ErrInvalidCredentials)
		}
		log.Error("failed to find user", util.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		log.Info("login failed")
		return nil, fmt.Errorf("%s: %w", op, model.ErrInvalidCredentials)
	}

	subject := model.Subject{UserID: user.ID}

	access, err := s.codec.Issue(model.KindAccess, subject)
	if err != nil {
		log.Error("failed to issue access token", util.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, err := s.codec.Issue(model.KindRefresh, subject)
	if err != nil {
		log.Error("failed to issue refresh token", util.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in", slog.Int64("user_id", user.ID))

	return &model.LoginResult{
		Access:   access,
		Refresh:  refresh,
		Username: user.Username,
	}, nil
}

// Refresh mints a new access token from a valid, unrevoked refresh token.
//
// Errors:
//   - model.ErrInvalidToken when decoding fails; an expired token additionally matches model.ErrTokenExpired
//   - model.ErrTokenRevoked when the jti is in the ledger, or, with rotation, when a concurrent
//     refresh of the same token recorded it first
//   - model.ErrWrongTokenKind when an access token is presented
func (s *AuthenticationService) Refresh(ctx context.Context, refreshToken string) (res *model.RefreshResult, err error) {
	const op = "service.AuthenticationService.Refresh"

	log := s.log.With(slog.String("op", op))
	defer func() { s.metrics.ObserveAuth("refresh", err) }()

	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		log.Debug("refresh token rejected", util.Err(err))
		if errors.Is(err, model.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w: %w", op, model.ErrInvalidToken, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	revoked, err := s.ledger.IsRevoked(ctx, claims.ID)
	if err != nil {
		log.Error("revocation check failed", util.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if revoked {
		log.Info("revoked refresh token presented", slog.String("jti", claims.ID))
		return nil, fmt.Errorf("%s: %w", op, model.ErrTokenRevoked)
	}

	if claims.Type != model.KindRefresh {
		return nil, fmt.Errorf("%s: %w", op, model.ErrWrongTokenKind)
	}

	if s.rotate {
		// the insert decides: only the caller that records the jti may rotate it
		inserted, err := s.ledger.RevokeOnce(ctx, claims.ID, model.KindRefresh, claims.Expiry())
		if err != nil {
			log.Error("failed to revoke rotated refresh token", util.Err(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !inserted {
			log.Warn("refresh token already rotated", slog.String("jti", claims.ID))
			return nil, fmt.Errorf("%s: %w", op, model.ErrTokenRevoked)
		}
	}

	access, err := s.codec.Issue(model.KindAccess, claims.Subject)
	if err != nil {
		log.Error("failed to issue access token", util.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res = &model.RefreshResult{Access: access}
	if !s.rotate {
		return res, nil
	}

	s.publish(ctx, model.AuthEvent{
		Type:      model.EventTokenRevoked,
		UserID:    claims.Subject.UserID,
		JTI:       claims.ID,
		TokenType: model.KindRefresh,
	})

	refresh, err := s.codec.Issue(model.KindRefresh, claims.Subject)
	if err != nil {
		log.Error("failed to issue refresh token", util.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res.Refresh = &refresh

	return res, nil
}

// Logout revokes the jti of token, whatever its kind. Logging out twice is not an error.
func (s *AuthenticationService) Logout(ctx context.Context, token string) (err error) {
	const op = "service.AuthenticationService.Logout"

	log := s.log.With(slog.String("op", op))
	defer func() { s.metrics.ObserveAuth("logout", err) }()

	claims, err := s.codec.Decode(token)
	if err != nil {
		log.Debug("logout token rejected", util.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.ledger.Revoke(ctx, claims.ID, claims.Type, claims.Expiry()); err != nil {
		log.Error("failed to revoke token", util.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("token revoked",
		slog.String("jti", claims.ID),
		slog.String("type", string(claims.Type)),
		slog.Int64("user_id", claims.Subject.UserID),
	)
	s.publish(ctx, model.AuthEvent{
		Type:      model.EventTokenRevoked,
		UserID:    claims.Subject.UserID,
		JTI:       claims.ID,
		TokenType: claims.Type,
	})

	return nil
}

func (s *AuthenticationService) publish(ctx context.Context, event model.AuthEvent) {
	publishEvent(ctx, s.notifier, s.log, event)
}

// publishEvent : broker failures never fail the operation that produced the event
func publishEvent(ctx context.Context, n ports.Notifier, log *slog.Logger, event model.AuthEvent) {
	if n == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := n.Publish(ctx, event); err != nil {
		log.Warn("failed to publish event", slog.String("event", string(event.Type)), util.Err(err))
	}
}
