package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// ErrorResponse is the JSON body for every non-2xx reply.
type ErrorResponse struct {
	Message string `json:"message"`
}

// writeJSON sends v with status. The status line is already out when the
// body fails to encode, so the failure can only be logged.
func writeJSON(w http.ResponseWriter, log logrus.FieldLogger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).WithField("status", status).Warn("Failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, log logrus.FieldLogger, status int, message string) {
	writeJSON(w, log, status, ErrorResponse{Message: message})
}
