package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"agromind-server/internal/model"
	"agromind-server/internal/model/requestresponse"
	"agromind-server/internal/ports"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	ports.UserService
	log *slog.Logger
}

func NewUserHandler(userService ports.UserService, log *slog.Logger) *UserHandler {
	return &UserHandler{
		UserService: userService,
		log:         log,
	}
}

// Me godoc
// @Summary Current user
// @Description Returns the user the access token belongs to
// @Tags Users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} requestresponse.UserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse "User was deleted"
// @Router /users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	sendJSON(w, r, http.StatusOK, requestresponse.NewUserResponse(user))
}

// GetUser godoc
// @Summary Get a user
// @Tags Users
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User id"
// @Success 200 {object} requestresponse.UserResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.UserService.FindByID(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, h.log, err)
		return
	}

	sendJSON(w, r, http.StatusOK, requestresponse.NewUserResponse(user))
}

// UpdateUser godoc
// @Summary Update profile
// @Description Changes username and/or email. Only the account owner may do this.
// @Tags Users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User id"
// @Param body body requestresponse.UpdateUserRequest true "Request body"
// @Success 200 {object} requestresponse.UserResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse "Email already registered"
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req requestresponse.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.UserService.UpdateUser(r.Context(), actor.ID, id, model.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		sendServiceError(w, r, h.log, err)
		return
	}

	sendJSON(w, r, http.StatusOK, requestresponse.NewUserResponse(user))
}

// UpdatePassword godoc
// @Summary Change password
// @Description Only the account owner may change the password
// @Tags Users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User id"
// @Param body body requestresponse.UpdatePasswordRequest true "Request body"
// @Success 200 {object} requestresponse.UpdatePasswordResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Router /users/{id}/password [put]
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req requestresponse.UpdatePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.UserService.UpdatePassword(r.Context(), actor.ID, id, req.NewPassword); err != nil {
		sendServiceError(w, r, h.log, err)
		return
	}

	sendJSON(w, r, http.StatusOK, requestresponse.UpdatePasswordResponse{Updated: true})
}

// DeleteUser godoc
// @Summary Delete account
// @Description Deletes the account with its feedback and attachments. Only the account owner may do this.
// @Tags Users
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User id"
// @Success 200 {object} requestresponse.DeleteUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	if err := h.UserService.DeleteUser(r.Context(), actor.ID, id); err != nil {
		sendServiceError(w, r, h.log, err)
		return
	}

	sendJSON(w, r, http.StatusOK, requestresponse.DeleteUserResponse{
		Message: "User deleted successfully",
		UserID:  id,
	})
}

// ListUsers godoc
// @Summary List users
// @Description Users ordered by id with cursor-based pagination
// @Tags Users
// @Produce json
// @Security ApiKeyAuth
// @Param cursor query string false "Cursor from the previous page"
// @Param limit query int false "Page size" default(20) minimum(1) maximum(100)
// @Success 200 {object} requestresponse.ListUsersResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")

	var limit int
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			sendErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = l
	}

	users, nextCursor, err := h.UserService.ListUsers(r.Context(), cursor, limit)
	if err != nil {
		sendServiceError(w, r, h.log, err)
		return
	}

	resp := requestresponse.ListUsersResponse{
		Users:      make([]requestresponse.UserResponse, 0, len(users)),
		NextCursor: nextCursor,
	}
	for _, u := range users {
		resp.Users = append(resp.Users, requestresponse.NewUserResponse(u))
	}

	sendJSON(w, r, http.StatusOK, resp)
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		sendErrorResponse(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}
