package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"agromind-server/config"
	"agromind-server/internal/model"

	"github.com/jmoiron/sqlx"
)

type UserRepository struct {
	*config.Database
}

func NewUserRepository(database *config.Database) *UserRepository {
	return &UserRepository{database}
}

const userColumns = `id, username, email, password_hash, created_at`

// CreateUser : inserts a new user. A taken email yields model.ErrDuplicateEmail.
func (r *UserRepository) CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error) {
	const op = "repository.UserRepository.CreateUser"

	query := `
	INSERT INTO users (username, email, password_hash)
	VALUES ($1, $2, $3)
	RETURNING ` + userColumns

	var created model.User
	err := sqlx.GetContext(ctx, exec, &created, query, user.Username, user.Email, user.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, model.ErrDuplicateEmail)
		}
		return nil, storeError(op, err)
	}

	return &created, nil
}

// FindByID : model.ErrUserNotFound when no row matches
func (r *UserRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*model.User, error) {
	const op = "repository.UserRepository.FindByID"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user model.User
	if err := sqlx.GetContext(ctx, exec, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, model.ErrUserNotFound)
		}
		return nil, storeError(op, err)
	}
	return &user, nil
}

// FindByEmail : model.ErrUserNotFound when no row matches
func (r *UserRepository) FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error) {
	const op = "repository.UserRepository.FindByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user model.User
	if err := sqlx.GetContext(ctx, exec, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, model.ErrUserNotFound)
		}
		return nil, storeError(op, err)
	}
	return &user, nil
}

// UpdateUser : changes username and/or email, nil fields are left as they are
func (r *UserRepository) UpdateUser(ctx context.Context, exec sqlx.ExtContext, id int64, update model.UserUpdate) (*model.User, error) {
	const op = "repository.UserRepository.UpdateUser"

	query := `
		UPDATE users
		SET username = COALESCE($2, username),
		    email = COALESCE($3, email)
		WHERE id = $1
		RETURNING ` + userColumns

	var user model.User
	err := sqlx.GetContext(ctx, exec, &user, query, id, update.Username, update.Email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("%s: %w", op, model.ErrUserNotFound)
		case isUniqueViolation(err):
			return nil, fmt.Errorf("%s: %w", op, model.ErrDuplicateEmail)
		}
		return nil, storeError(op, err)
	}
	return &user, nil
}

// UpdatePassword : replaces the stored hash
func (r *UserRepository) UpdatePassword(ctx context.Context, exec sqlx.ExtContext, id int64, newPasswordHash string) error {
	const op = "repository.UserRepository.UpdatePassword"

	query := `UPDATE users SET password_hash = $2 WHERE id = $1`
	res, err := exec.ExecContext(ctx, query, id, newPasswordHash)
	if err != nil {
		return storeError(op, err)
	}
	return expectAffected(op, res)
}

// DeleteUser : removes the user row; feedback rows go with it through ON DELETE CASCADE
func (r *UserRepository) DeleteUser(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	const op = "repository.UserRepository.DeleteUser"

	query := `DELETE FROM users WHERE id = $1`
	res, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return storeError(op, err)
	}
	return expectAffected(op, res)
}

// ListUsers : keyset pagination over id. cursor is the last id of the previous page, "" for the first one.
func (r *UserRepository) ListUsers(ctx context.Context, exec sqlx.ExtContext, cursor string, limit int) ([]*model.User, string, error) {
	const op = "repository.UserRepository.ListUsers"

	query := `
        SELECT ` + userColumns + `
        FROM users
        WHERE id > $1
        ORDER BY id ASC
        LIMIT $2
    `

	var after int64
	if cursor != "" {
		var err error
		after, err = strconv.ParseInt(cursor, 10, 64)
		if err != nil || after < 0 {
			return nil, "", fmt.Errorf("%s: %w: invalid cursor %q", op, model.ErrValidation, cursor)
		}
	}

	var users []*model.User
	// one extra row tells whether a next page exists
	if err := sqlx.SelectContext(ctx, exec, &users, query, after, limit+1); err != nil {
		return nil, "", storeError(op, err)
	}

	var nextCursor string
	if len(users) > limit {
		users = users[:limit]
		nextCursor = strconv.FormatInt(users[len(users)-1].ID, 10)
	}

	return users, nextCursor, nil
}

// BeginTX : the returned rollback is safe to defer after commit
func (r *UserRepository) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, nil, storeError("repository.UserRepository.BeginTX", err)
	}

	rollback := func() error {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			return err
		}
		return nil
	}
	return tx, rollback, tx.Commit, nil
}

func expectAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeError(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, model.ErrUserNotFound)
	}
	return nil
}
