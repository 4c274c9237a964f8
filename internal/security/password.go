package security

import (
	"errors"
	"fmt"

	"agromind-server/internal/model"

	"golang.org/x/crypto/bcrypt"
)

type PasswordHasher struct {
	cost  int
	dummy []byte
}

// NewPasswordHasher : cost outside bcrypt's range falls back to bcrypt.DefaultCost
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("agromind-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("security.NewPasswordHasher: %w", err)
	}

	return &PasswordHasher{cost: cost, dummy: dummy}, nil
}

// Hash : salted bcrypt hash of password
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password longer than 72 bytes", model.ErrValidation)
		}
		return "", fmt.Errorf("security.Hash: %w", err)
	}
	return string(hash), nil
}

// Verify : constant-time check of password against hash. A malformed hash never matches.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// VerifyDummy spends the same time as a real Verify so that a missing account is not observable
// through response latency.
func (h *PasswordHasher) VerifyDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}
