package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	log logrus.FieldLogger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(logger logrus.FieldLogger) *HealthHandler {
	return &HealthHandler{log: logger.WithField("component", "health_handler")}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status string `json:"status"`
}

// Live handles GET /health.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, http.StatusOK, HealthResponse{Status: "ok"})
}
