package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"agromind-server/internal/model"
	"agromind-server/internal/model/requestresponse"
	"agromind-server/internal/ports"
	"agromind-server/internal/security"

	"github.com/go-chi/render"
)

type AuthenticationHandler struct {
	ports.AuthenticationService
	log *slog.Logger
}

func NewAuthenticationHandler(authenticationService ports.AuthenticationService, log *slog.Logger) *AuthenticationHandler {
	return &AuthenticationHandler{
		AuthenticationService: authenticationService,
		log:                   log,
	}
}

// Register godoc
// @Summary Register a new user
// @Description Creates a user with a unique email. The password is stored as a bcrypt hash.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RegisterRequest true "Request body"
// @Success 201 {object} requestresponse.RegisterResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Invalid body"
// @Failure 409 {object} requestresponse.ErrorResponse "Email already registered"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /auth/register [post]
func (h *AuthenticationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.AuthenticationService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		sendServiceError(w, r, h.log, err)
		return
	}

	sendJSON(w, r, http.StatusCreated, requestresponse.RegisterResponse{
		Message: "User created",
		UserID:  id,
	})
}

// Login godoc
// @Summary Log in
// @Description Checks email and password and issues an access token and a refresh token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Request body"
// @Success 200 {object} requestresponse.LoginResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Invalid body"
// @Failure 401 {object} requestresponse.ErrorResponse "Invalid email or password"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /auth/login [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.AuthenticationService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		sendServiceError(w, r, h.log, err)
		return
	}

	sendJSON(w, r, http.StatusOK, requestresponse.LoginResponse{
		AccessToken:    res.Access.Token,
		AccessJTI:      res.Access.JTI,
		AccessExpires:  res.Access.ExpiresAt,
		RefreshToken:   res.Refresh.Token,
		RefreshJTI:     res.Refresh.JTI,
		RefreshExpires: res.Refresh.ExpiresAt,
		Username:       res.Username,
	})
}

// Refresh godoc
// @Summary Refresh the access token
// @Description Issues a new access token for a valid, unrevoked refresh token. With rotation enabled the refresh token is replaced as well.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RefreshTokenRequest true "Request body"
// @Success 200 {object} requestresponse.RefreshTokenResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Invalid body or not a refresh token"
// @Failure 401 {object} requestresponse.ErrorResponse "Invalid, expired or revoked token"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthenticationHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RefreshTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.AuthenticationService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		sendServiceError(w, r, h.log, err)
		return
	}

	resp := requestresponse.RefreshTokenResponse{
		AccessToken:   res.Access.Token,
		AccessJTI:     res.Access.JTI,
		AccessExpires: res.Access.ExpiresAt,
	}
	if res.Refresh != nil {
		resp.RefreshToken = res.Refresh.Token
		resp.RefreshJTI = res.Refresh.JTI
		resp.RefreshExpires = &res.Refresh.ExpiresAt
	}

	sendJSON(w, r, http.StatusOK, resp)
}

// Logout godoc
// @Summary Log out
// @Description Revokes a token. The token is taken from the Authorization header, or from the body when no header is sent. Revoking a token twice succeeds.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token" default(Bearer <refresh_token>)
// @Param body body requestresponse.LogoutRequest false "Request body"
// @Success 200 {object} requestresponse.MessageResponse
// @Failure 400 {object} requestresponse.ErrorResponse "No token given, or the token is malformed or expired"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := security.ExtractBearer(r.Header.Get("Authorization"))
	if token == "" {
		var req requestresponse.LogoutRequest
		// an absent body, chunked or not, decodes to io.EOF
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			sendErrorResponse(w, http.StatusBadRequest, "invalid request body")
			return
		}
		token = req.RefreshToken
	}
	if token == "" {
		sendErrorResponse(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := h.AuthenticationService.Logout(r.Context(), token); err != nil {
		if errors.Is(err, model.ErrInvalidToken) || errors.Is(err, model.ErrTokenExpired) {
			sendErrorResponse(w, http.StatusBadRequest, "invalid token")
			return
		}
		sendServiceError(w, r, h.log, err)
		return
	}

	sendJSON(w, r, http.StatusOK, requestresponse.MessageResponse{Message: "Logged out"})
}
