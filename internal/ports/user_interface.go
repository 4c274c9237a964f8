package ports

import (
	"context"

	"agromind-server/internal/model"

	"github.com/jmoiron/sqlx"
)

// UserRepository : credential store
type UserRepository interface {
	CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error)
	UpdateUser(ctx context.Context, exec sqlx.ExtContext, id int64, update model.UserUpdate) (*model.User, error)
	UpdatePassword(ctx context.Context, exec sqlx.ExtContext, id int64, newPasswordHash string) error
	DeleteUser(ctx context.Context, exec sqlx.ExtContext, id int64) error
	ListUsers(ctx context.Context, exec sqlx.ExtContext, cursor string, limit int) ([]*model.User, string, error)
	BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error)
}

type UserService interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
	UpdateUser(ctx context.Context, actorID, id int64, update model.UserUpdate) (*model.User, error)
	UpdatePassword(ctx context.Context, actorID, id int64, newPassword string) error
	DeleteUser(ctx context.Context, actorID, id int64) error
	ListUsers(ctx context.Context, cursor string, limit int) ([]*model.User, string, error)
}
