package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"agromind-server/config"
	"agromind-server/internal/model"
	"agromind-server/internal/security"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// ===== MOCKS =====

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, exec sqlx.ExtContext, user *model.User) (*model.User, error) {
	args := m.Called(ctx, exec, user)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*model.User, error) {
	args := m.Called(ctx, exec, id)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, exec sqlx.ExtContext, email string) (*model.User, error) {
	args := m.Called(ctx, exec, email)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, exec sqlx.ExtContext, id int64, update model.UserUpdate) (*model.User, error) {
	args := m.Called(ctx, exec, id, update)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, exec sqlx.ExtContext, id int64, newPasswordHash string) error {
	args := m.Called(ctx, exec, id, newPasswordHash)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteUser(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	args := m.Called(ctx, exec, id)
	return args.Error(0)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, exec sqlx.ExtContext, cursor string, limit int) ([]*model.User, string, error) {
	args := m.Called(ctx, exec, cursor, limit)
	users, _ := args.Get(0).([]*model.User)
	return users, args.String(1), args.Error(2)
}

func (m *MockUserRepository) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	args := m.Called(ctx)
	exec, _ := args.Get(0).(sqlx.ExtContext)
	rollback, _ := args.Get(1).(func() error)
	commit, _ := args.Get(2).(func() error)
	return exec, rollback, commit, args.Error(3)
}

type MockFeedbackRepository struct {
	mock.Mock
}

func (m *MockFeedbackRepository) Create(ctx context.Context, exec sqlx.ExtContext, feedback *model.Feedback) error {
	args := m.Called(ctx, exec, feedback)
	return args.Error(0)
}

func (m *MockFeedbackRepository) ListByUser(ctx context.Context, exec sqlx.ExtContext, userID int64, limit int) ([]model.Feedback, error) {
	args := m.Called(ctx, exec, userID, limit)
	items, _ := args.Get(0).([]model.Feedback)
	return items, args.Error(1)
}

func (m *MockFeedbackRepository) AttachmentKeys(ctx context.Context, exec sqlx.ExtContext, userID int64) ([]string, error) {
	args := m.Called(ctx, exec, userID)
	keys, _ := args.Get(0).([]string)
	return keys, args.Error(1)
}

type MockDeviceRepository struct {
	mock.Mock
}

func (m *MockDeviceRepository) Create(ctx context.Context, exec sqlx.ExtContext, device *model.Device) error {
	args := m.Called(ctx, exec, device)
	return args.Error(0)
}

func (m *MockDeviceRepository) FindByDeviceID(ctx context.Context, exec sqlx.ExtContext, deviceID string) (*model.Device, error) {
	args := m.Called(ctx, exec, deviceID)
	d, _ := args.Get(0).(*model.Device)
	return d, args.Error(1)
}

func (m *MockDeviceRepository) FindByCredentialHash(ctx context.Context, exec sqlx.ExtContext, hash string) (*model.Device, error) {
	args := m.Called(ctx, exec, hash)
	d, _ := args.Get(0).(*model.Device)
	return d, args.Error(1)
}

func (m *MockDeviceRepository) UpdateCredential(ctx context.Context, exec sqlx.ExtContext, id int64, hash string) error {
	args := m.Called(ctx, exec, id, hash)
	return args.Error(0)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GeneratePresignedGetURL(ctx context.Context, key string, expire time.Duration) (string, error) {
	args := m.Called(ctx, key, expire)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) GeneratePresignedPutURL(ctx context.Context, key string, expire time.Duration) (string, error) {
	args := m.Called(ctx, key, expire)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Publish(ctx context.Context, event model.AuthEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// ===== IN-MEMORY FAKES =====

// memUsers enforces email uniqueness the way the users table does.
type memUsers struct {
	MockUserRepository
	mu     sync.Mutex
	nextID int64
	byMail map[string]*model.User
}

func newMemUsers() *memUsers {
	return &memUsers{byMail: make(map[string]*model.User)}
}

func (r *memUsers) CreateUser(_ context.Context, _ sqlx.ExtContext, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byMail[user.Email]; taken {
		return nil, model.ErrDuplicateEmail
	}
	r.nextID++
	created := *user
	created.ID = r.nextID
	created.CreatedAt = time.Now()
	r.byMail[user.Email] = &created
	return &created, nil
}

func (r *memUsers) FindByEmail(_ context.Context, _ sqlx.ExtContext, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byMail[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

type memLedger struct {
	mu      sync.Mutex
	entries map[string]model.RevokedToken
	err     error
}

func newMemLedger() *memLedger {
	return &memLedger{entries: make(map[string]model.RevokedToken)}
}

func (l *memLedger) Revoke(ctx context.Context, jti string, kind model.TokenKind, expiresAt time.Time) error {
	_, err := l.RevokeOnce(ctx, jti, kind, expiresAt)
	return err
}

func (l *memLedger) RevokeOnce(_ context.Context, jti string, kind model.TokenKind, expiresAt time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return false, l.err
	}
	if _, ok := l.entries[jti]; ok {
		return false, nil
	}
	l.entries[jti] = model.RevokedToken{JTI: jti, TokenType: kind, Revoked: true, ExpiresAt: expiresAt}
	return true, nil
}

func (l *memLedger) IsRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return false, l.err
	}
	if jti == "" {
		return true, nil
	}
	_, ok := l.entries[jti]
	return ok, nil
}

func (l *memLedger) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return 0, l.err
	}
	var n int64
	for jti, entry := range l.entries {
		if entry.ExpiresAt.Before(before) {
			delete(l.entries, jti)
			n++
		}
	}
	return n, nil
}

func (l *memLedger) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// ===== HELPERS =====

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		SecretKey:       "test-secret",
		Algorithm:       "HS256",
		Issuer:          "agromind",
		AccessTokenTTL:  24 * time.Hour,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	}
}

func newTestCodec(t *testing.T, opts ...security.CodecOption) *security.TokenCodec {
	t.Helper()
	codec, err := security.NewTokenCodec(testJWTConfig(), opts...)
	require.NoError(t, err)
	return codec
}

func newTestHasher(t *testing.T) *security.PasswordHasher {
	t.Helper()
	hasher, err := security.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return hasher
}
