package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"agromind-server/internal/model"
	"agromind-server/internal/ports"
	"agromind-server/internal/util"

	"github.com/jmoiron/sqlx"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type UserService struct {
	db       sqlx.ExtContext
	users    ports.UserRepository
	feedback ports.FeedbackRepository
	storage  ports.AttachmentStorage
	hasher   ports.PasswordHasher
	notifier ports.Notifier
	log      *slog.Logger
}

// NewUserService : storage may be nil when attachments are disabled
func NewUserService(
	db sqlx.ExtContext,
	users ports.UserRepository,
	feedback ports.FeedbackRepository,
	storage ports.AttachmentStorage,
	hasher ports.PasswordHasher,
	notifier ports.Notifier,
	log *slog.Logger,
) *UserService {
	return &UserService{
		db:       db,
		users:    users,
		feedback: feedback,
		storage:  storage,
		hasher:   hasher,
		notifier: notifier,
		log:      log,
	}
}

// FindByID also backs the access guard.
func (s *UserService) FindByID(ctx context.Context, id int64) (*model.User, error) {
	const op = "service.UserService.FindByID"

	user, err := s.users.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, cursor string, limit int) ([]*model.User, string, error) {
	const op = "service.UserService.ListUsers"

	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}

	users, next, err := s.users.ListUsers(ctx, s.db, cursor, limit)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return users, next, nil
}

// UpdateUser changes the caller's own username and/or email.
func (s *UserService) UpdateUser(ctx context.Context, actorID, id int64, update model.UserUpdate) (*model.User, error) {
	const op = "service.UserService.UpdateUser"

	log := s.log.With(slog.String("op", op), slog.Int64("user_id", id))

	if actorID != id {
		return nil, fmt.Errorf("%s: %w", op, model.ErrForbidden)
	}
	if update.Username == nil && update.Email == nil {
		return nil, fmt.Errorf("%s: %w: nothing to update", op, model.ErrValidation)
	}

	user, err := s.users.UpdateUser(ctx, s.db, id, update)
	if err != nil {
		if !errors.Is(err, model.ErrDuplicateEmail) && !errors.Is(err, model.ErrUserNotFound) {
			log.Error("failed to update user", util.Err(err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user updated")
	return user, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, actorID, id int64, newPassword string) error {
	const op = "service.UserService.UpdatePassword"

	log := s.log.With(slog.String("op", op), slog.Int64("user_id", id))

	if actorID != id {
		return fmt.Errorf("%s: %w", op, model.ErrForbidden)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.users.UpdatePassword(ctx, s.db, id, hash); err != nil {
		log.Error("failed to update password", util.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password updated")
	return nil
}

// DeleteUser removes the caller's account together with its feedback and uploaded attachments.
// Tokens issued to the account stop working because the access guard can no longer resolve the user.
func (s *UserService) DeleteUser(ctx context.Context, actorID, id int64) error {
	const op = "service.UserService.DeleteUser"

	log := s.log.With(slog.String("op", op), slog.Int64("user_id", id))

	if actorID != id {
		return fmt.Errorf("%s: %w", op, model.ErrForbidden)
	}

	exec, rollback, commit, err := s.users.BeginTX(ctx)
	if err != nil {
		log.Error("failed to begin transaction", util.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer rollback()

	keys, err := s.feedback.AttachmentKeys(ctx, exec, id)
	if err != nil {
		log.Error("failed to list attachments", util.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.users.DeleteUser(ctx, exec, id); err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			log.Error("failed to delete user", util.Err(err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := commit(); err != nil {
		log.Error("failed to commit", util.Err(err))
		return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
	}

	if s.storage != nil {
		for _, key := range keys {
			if err := s.storage.DeleteObject(ctx, key); err != nil {
				log.Warn("failed to delete attachment", slog.String("key", key), util.Err(err))
			}
		}
	}

	log.Info("user deleted", slog.Int("attachments", len(keys)))
	publishEvent(ctx, s.notifier, s.log, model.AuthEvent{Type: model.EventUserDeleted, UserID: id})

	return nil
}
