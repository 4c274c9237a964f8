package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"agromind-server/internal/model/requestresponse"
	"agromind-server/internal/util"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db  Pinger
	log *slog.Logger
}

func NewHealthHandler(db Pinger, log *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, log: log}
}

// Health godoc
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} requestresponse.HealthResponse
// @Failure 503 {object} requestresponse.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			h.log.Warn("health check failed", util.Err(err))
			sendJSON(w, r, http.StatusServiceUnavailable, requestresponse.HealthResponse{Status: "unavailable"})
			return
		}
	}

	sendJSON(w, r, http.StatusOK, requestresponse.HealthResponse{Status: "ok"})
}
