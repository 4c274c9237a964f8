package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"agromind-server/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of the server. A nil *Metrics is valid and records nothing.
type Metrics struct {
	AuthOperations  *prometheus.CounterVec
	GuardRejections *prometheus.CounterVec
	RevocationCache *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		AuthOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_operations_total",
				Help: "Auth service operations by outcome.",
			},
			[]string{"operation", "outcome"},
		),
		GuardRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_guard_rejections_total",
				Help: "Requests rejected by the access guard.",
			},
			[]string{"reason"},
		),
		RevocationCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revocation_cache_lookups_total",
				Help: "Revocation cache lookups by result.",
			},
			[]string{"result"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	registry.MustRegister(m.AuthOperations, m.GuardRejections, m.RevocationCache, m.RequestDuration)
	return m
}

func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAuth(operation string, err error) {
	if m == nil {
		return
	}
	m.AuthOperations.WithLabelValues(operation, Outcome(err)).Inc()
}

func (m *Metrics) ObserveGuardRejection(err error) {
	if m == nil {
		return
	}
	m.GuardRejections.WithLabelValues(Outcome(err)).Inc()
}

func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.RevocationCache.WithLabelValues(result).Inc()
}

// Middleware records request durations labelled with the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.RequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}

// Outcome maps an error onto a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, model.ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, model.ErrTokenExpired):
		return "expired"
	case errors.Is(err, model.ErrWrongTokenKind):
		return "wrong_kind"
	case errors.Is(err, model.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, model.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, model.ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, model.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, model.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, model.ErrValidation):
		return "validation"
	default:
		return "error"
	}
}
