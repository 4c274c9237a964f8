package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agromind-server/internal/model"
	"agromind-server/internal/security"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ===== MOCKS =====

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, username, email, password string) (int64, error) {
	args := m.Called(ctx, username, email, password)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*model.LoginResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*model.LoginResult)
	return res, args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*model.RefreshResult, error) {
	args := m.Called(ctx, refreshToken)
	res, _ := args.Get(0).(*model.RefreshResult)
	return res, args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, actorID, id int64, update model.UserUpdate) (*model.User, error) {
	args := m.Called(ctx, actorID, id, update)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserService) UpdatePassword(ctx context.Context, actorID, id int64, newPassword string) error {
	args := m.Called(ctx, actorID, id, newPassword)
	return args.Error(0)
}

func (m *MockUserService) DeleteUser(ctx context.Context, actorID, id int64) error {
	args := m.Called(ctx, actorID, id)
	return args.Error(0)
}

func (m *MockUserService) ListUsers(ctx context.Context, cursor string, limit int) ([]*model.User, string, error) {
	args := m.Called(ctx, cursor, limit)
	users, _ := args.Get(0).([]*model.User)
	return users, args.String(1), args.Error(2)
}

type MockFeedbackService struct {
	mock.Mock
}

func (m *MockFeedbackService) Submit(ctx context.Context, userID int64, message string, predictionResult *string, attachmentFilename string) (*model.CreatedFeedback, error) {
	args := m.Called(ctx, userID, message, predictionResult, attachmentFilename)
	res, _ := args.Get(0).(*model.CreatedFeedback)
	return res, args.Error(1)
}

func (m *MockFeedbackService) List(ctx context.Context, userID int64) ([]model.FeedbackView, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]model.FeedbackView)
	return items, args.Error(1)
}

type MockDeviceService struct {
	mock.Mock
}

func (m *MockDeviceService) Register(ctx context.Context, ownerID int64, deviceID, name, meta string) (*model.ProvisionedDevice, error) {
	args := m.Called(ctx, ownerID, deviceID, name, meta)
	res, _ := args.Get(0).(*model.ProvisionedDevice)
	return res, args.Error(1)
}

func (m *MockDeviceService) Provision(ctx context.Context, actorID int64, deviceID string) (*model.ProvisionedDevice, error) {
	args := m.Called(ctx, actorID, deviceID)
	res, _ := args.Get(0).(*model.ProvisionedDevice)
	return res, args.Error(1)
}

func (m *MockDeviceService) Authenticate(ctx context.Context, credToken string) (*model.Device, error) {
	args := m.Called(ctx, credToken)
	d, _ := args.Get(0).(*model.Device)
	return d, args.Error(1)
}

// ===== HELPERS =====

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// asUser puts user into the request context the way the access guard does.
func asUser(req *http.Request, user *model.User) *http.Request {
	ctx := context.WithValue(req.Context(), security.UserContextKey, user)
	return req.WithContext(ctx)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var testExpiry = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
