package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"agromind-server/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// Migrate : creates the tables if they do not exist yet
func Migrate(ctx context.Context, exec sqlx.ExecerContext) error {
	if _, err := exec.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("repository.Migrate: %w", err)
	}
	return nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
}
