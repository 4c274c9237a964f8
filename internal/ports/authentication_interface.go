package ports

import (
	"context"

	"agromind-server/internal/model"
)

type AuthenticationService interface {
	Register(ctx context.Context, username, email, password string) (int64, error)
	Login(ctx context.Context, email, password string) (*model.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*model.RefreshResult, error)
	Logout(ctx context.Context, token string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	VerifyDummy(password string)
}
