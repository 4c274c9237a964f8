package security

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"agromind-server/internal/metrics"
	"agromind-server/internal/model"
	"agromind-server/internal/util"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const (
	UserContextKey   contextKey = "user"
	ClaimsContextKey contextKey = "claims"
)

// JWTMiddleware rejects requests without a valid access token and stores the resolved user
// and claims in the request context.
func JWTMiddleware(guard *AccessGuard, m *metrics.Metrics, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearer(r.Header.Get("Authorization"))
			if token == "" {
				m.ObserveGuardRejection(model.ErrUnauthenticated)
				w.Header().Set("WWW-Authenticate", "Bearer")
				util.HandleError(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			user, claims, err := guard.Authenticate(r.Context(), token)
			if err != nil {
				m.ObserveGuardRejection(err)
				writeGuardError(w, r, log, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			ctx = context.WithValue(ctx, ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeGuardError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", "Bearer")
		util.HandleError(w, "invalid or revoked token", http.StatusUnauthorized)
	case errors.Is(err, model.ErrUserNotFound):
		util.HandleError(w, "user not found", http.StatusNotFound)
	case errors.Is(err, model.ErrStoreUnavailable):
		log.Error("guard store failure",
			slog.String("request_id", middleware.GetReqID(r.Context())), util.Err(err))
		util.HandleError(w, "service unavailable", http.StatusServiceUnavailable)
	default:
		log.Error("guard failure",
			slog.String("request_id", middleware.GetReqID(r.Context())), util.Err(err))
		util.HandleError(w, "internal server error", http.StatusInternalServerError)
	}
}

// ExtractBearer returns the token of an "Authorization: Bearer <token>" header or "".
func ExtractBearer(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*model.User)
	return user, ok && user != nil
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok && claims != nil
}
