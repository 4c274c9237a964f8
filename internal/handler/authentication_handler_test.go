package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agromind-server/internal/handler"
	"agromind-server/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func authRouter(svc *MockAuthService) http.Handler {
	h := handler.NewAuthenticationHandler(svc, discardLogger())

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
	})
	return r
}

func TestAuthenticationHandler_Register(t *testing.T) {
	tests := []struct {
		name   string
		body   map[string]any
		setup  func(m *MockAuthService)
		status int
	}{
		{
			name: "created",
			body: map[string]any{"username": "alice", "email": "a@x.io", "password": "pw123456"},
			setup: func(m *MockAuthService) {
				m.On("Register", mock.Anything, "alice", "a@x.io", "pw123456").Return(int64(1), nil)
			},
			status: http.StatusCreated,
		},
		{
			name: "duplicate email",
			body: map[string]any{"username": "alice", "email": "a@x.io", "password": "pw123456"},
			setup: func(m *MockAuthService) {
				m.On("Register", mock.Anything, "alice", "a@x.io", "pw123456").
					Return(int64(0), fmt.Errorf("svc: %w", model.ErrDuplicateEmail))
			},
			status: http.StatusConflict,
		},
		{
			name:   "bad email",
			body:   map[string]any{"username": "alice", "email": "not-an-email", "password": "pw123456"},
			status: http.StatusBadRequest,
		},
		{
			name:   "short password",
			body:   map[string]any{"username": "alice", "email": "a@x.io", "password": "123"},
			status: http.StatusBadRequest,
		},
		{
			name: "store down",
			body: map[string]any{"username": "alice", "email": "a@x.io", "password": "pw123456"},
			setup: func(m *MockAuthService) {
				m.On("Register", mock.Anything, "alice", "a@x.io", "pw123456").
					Return(int64(0), fmt.Errorf("svc: %w", model.ErrStoreUnavailable))
			},
			status: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			if tt.setup != nil {
				tt.setup(svc)
			}

			rec := httptest.NewRecorder()
			authRouter(svc).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/auth/register", tt.body))

			assert.Equal(t, tt.status, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestAuthenticationHandler_RegisterBody(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Register", mock.Anything, "alice", "a@x.io", "pw123456").Return(int64(1), nil)

	rec := httptest.NewRecorder()
	authRouter(svc).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/auth/register",
		map[string]any{"username": "alice", "email": "a@x.io", "password": "pw123456"}))

	body := decodeBody(t, rec)
	assert.Equal(t, "User created", body["message"])
	assert.Equal(t, float64(1), body["user_id"])
}

func TestAuthenticationHandler_Login(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Login", mock.Anything, "a@x.io", "pw123456").Return(&model.LoginResult{
		Access:   model.IssuedToken{Token: "acc", JTI: "j1", ExpiresAt: testExpiry},
		Refresh:  model.IssuedToken{Token: "ref", JTI: "j2", ExpiresAt: testExpiry},
		Username: "alice",
	}, nil)
	svc.On("Login", mock.Anything, "a@x.io", "wrong").Return(nil, fmt.Errorf("svc: %w", model.ErrInvalidCredentials))

	rec := httptest.NewRecorder()
	authRouter(svc).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/auth/login",
		map[string]any{"email": "a@x.io", "password": "pw123456"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "acc", body["access_token"])
	assert.Equal(t, "j1", body["access_jti"])
	assert.Equal(t, "ref", body["refresh_token"])
	assert.Equal(t, "j2", body["refresh_jti"])
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "2026-01-02T03:04:05Z", body["access_expires"])

	rec = httptest.NewRecorder()
	authRouter(svc).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/auth/login",
		map[string]any{"email": "a@x.io", "password": "wrong"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid email or password", decodeBody(t, rec)["message"])
}

func TestAuthenticationHandler_Refresh(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"wrong kind", model.ErrWrongTokenKind, http.StatusBadRequest},
		{"revoked", model.ErrTokenRevoked, http.StatusUnauthorized},
		{"invalid", model.ErrInvalidToken, http.StatusUnauthorized},
		{"expired", fmt.Errorf("%w: %w", model.ErrInvalidToken, model.ErrTokenExpired), http.StatusUnauthorized},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			svc.On("Refresh", mock.Anything, "tok").Return(nil, tt.err)

			rec := httptest.NewRecorder()
			authRouter(svc).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/auth/refresh",
				map[string]any{"refresh_token": "tok"}))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestAuthenticationHandler_RefreshResponse(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Refresh", mock.Anything, "plain").Return(&model.RefreshResult{
		Access: model.IssuedToken{Token: "acc", JTI: "j1", ExpiresAt: testExpiry},
	}, nil)
	svc.On("Refresh", mock.Anything, "rotating").Return(&model.RefreshResult{
		Access:  model.IssuedToken{Token: "acc", JTI: "j1", ExpiresAt: testExpiry},
		Refresh: &model.IssuedToken{Token: "ref2", JTI: "j3", ExpiresAt: testExpiry},
	}, nil)

	rec := httptest.NewRecorder()
	authRouter(svc).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/auth/refresh", map[string]any{"refresh_token": "plain"}))
	body := decodeBody(t, rec)
	assert.Equal(t, "acc", body["access_token"])
	assert.NotContains(t, body, "refresh_token")

	rec = httptest.NewRecorder()
	authRouter(svc).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/auth/refresh", map[string]any{"refresh_token": "rotating"}))
	body = decodeBody(t, rec)
	assert.Equal(t, "ref2", body["refresh_token"])
	assert.Equal(t, "j3", body["refresh_jti"])
}

func TestAuthenticationHandler_RefreshMissingToken(t *testing.T) {
	svc := new(MockAuthService)

	rec := httptest.NewRecorder()
	authRouter(svc).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/auth/refresh", map[string]any{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestAuthenticationHandler_Logout(t *testing.T) {
	t.Run("bearer header", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Logout", mock.Anything, "from-header").Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer from-header")
		rec := httptest.NewRecorder()
		authRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Logged out", decodeBody(t, rec)["message"])
		svc.AssertExpectations(t)
	})

	t.Run("body", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Logout", mock.Anything, "from-body").Return(nil)

		rec := httptest.NewRecorder()
		authRouter(svc).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/auth/logout",
			map[string]any{"refresh_token": "from-body"}))

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("no token", func(t *testing.T) {
		svc := new(MockAuthService)

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		rec := httptest.NewRecorder()
		authRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	})

	t.Run("chunked empty body", func(t *testing.T) {
		svc := new(MockAuthService)

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(""))
		req.ContentLength = -1
		rec := httptest.NewRecorder()
		authRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "token is required", decodeBody(t, rec)["message"])
		svc.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := new(MockAuthService)

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		authRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid request body", decodeBody(t, rec)["message"])
	})

	undecodable := []struct {
		name string
		err  error
	}{
		{"invalid token", model.ErrInvalidToken},
		{"expired token", model.ErrTokenExpired},
	}
	for _, tt := range undecodable {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			svc.On("Logout", mock.Anything, "bad").Return(fmt.Errorf("svc: %w", tt.err))

			rec := httptest.NewRecorder()
			authRouter(svc).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/auth/logout",
				map[string]any{"refresh_token": "bad"}))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid token", decodeBody(t, rec)["message"])
		})
	}

	t.Run("store down", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Logout", mock.Anything, "tok").Return(fmt.Errorf("svc: %w", model.ErrStoreUnavailable))

		rec := httptest.NewRecorder()
		authRouter(svc).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/auth/logout",
			map[string]any{"refresh_token": "tok"}))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
