package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"agromind-server/internal/model"
	"agromind-server/internal/security"
	"agromind-server/internal/util"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON decodes and validates the request body. On failure it writes a 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := render.DecodeJSON(r.Body, target); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	if err := validate.Struct(target); err != nil {
		var validateErr validator.ValidationErrors
		if errors.As(err, &validateErr) {
			sendErrorResponse(w, http.StatusBadRequest, validationMessage(validateErr))
			return false
		}
		sendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	return true
}

func validationMessage(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		field := strings.ToLower(e.Field())
		switch e.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", field))
		case "email":
			msgs = append(msgs, fmt.Sprintf("field %s is not a valid email", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("field %s must be at least %s characters", field, e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("field %s must be at most %s characters", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", field))
		}
	}
	return strings.Join(msgs, ", ")
}

func sendJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	render.Status(r, status)
	render.JSON(w, r, body)
}

func sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	util.HandleError(w, message, statusCode)
}

// sendServiceError maps a service error to its HTTP status. Unexpected errors are logged with
// the request id and hidden behind a generic message.
func sendServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, model.ErrWrongTokenKind):
		sendErrorResponse(w, http.StatusBadRequest, "wrong token type")
	case errors.Is(err, model.ErrTokenRevoked):
		sendErrorResponse(w, http.StatusUnauthorized, "token has been revoked")
	case errors.Is(err, model.ErrTokenExpired):
		sendErrorResponse(w, http.StatusUnauthorized, "token has expired")
	case errors.Is(err, model.ErrInvalidToken):
		sendErrorResponse(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, model.ErrInvalidCredentials):
		sendErrorResponse(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, model.ErrUnauthenticated):
		sendErrorResponse(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, model.ErrDuplicateEmail):
		sendErrorResponse(w, http.StatusConflict, "email already registered")
	case errors.Is(err, model.ErrUserNotFound):
		sendErrorResponse(w, http.StatusNotFound, "user not found")
	case errors.Is(err, model.ErrDeviceExists):
		sendErrorResponse(w, http.StatusConflict, "device already registered")
	case errors.Is(err, model.ErrDeviceNotFound):
		sendErrorResponse(w, http.StatusNotFound, "device not found")
	case errors.Is(err, model.ErrForbidden):
		sendErrorResponse(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, model.ErrValidation):
		sendErrorResponse(w, http.StatusBadRequest, validationDetail(err))
	case errors.Is(err, model.ErrStoreUnavailable):
		log.Error("store unavailable",
			slog.String("request_id", middleware.GetReqID(r.Context())), util.Err(err))
		sendErrorResponse(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		log.Error("unexpected error",
			slog.String("request_id", middleware.GetReqID(r.Context())), util.Err(err))
		sendErrorResponse(w, http.StatusInternalServerError, "internal server error")
	}
}

// validationDetail : the text after the validation sentinel, e.g. "invalid cursor"
func validationDetail(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, model.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(model.ErrValidation.Error())+2:]
	}
	return "invalid request"
}

func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := security.UserFromContext(r.Context())
	if !ok {
		sendErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return nil, false
	}
	return user, true
}
