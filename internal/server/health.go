package server

import (
	"net/http"

	"github.com/charmbracelet/log"
)

// HealthHandler serves /health.
type HealthHandler struct {
	store  Pinger
	logger *log.Logger
}

// NewHealthHandler creates a [HealthHandler] checking store.
func NewHealthHandler(store Pinger, logger *log.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// Routes returns the health route.
func (h *HealthHandler) Routes() []Route {
	return []Route{{http.MethodGet, "/health", h.Health}}
}

// Health answers 200 while the store is reachable and 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", "err", err)
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
