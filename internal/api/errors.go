package api

import (
	"encoding/json"
	"net/http"
	"time"

	"sharehub/internal/service"
)

// internalMessage is what clients see for any unclassified failure; internal
// detail stays in the logs.
const internalMessage = "An unexpected error occurred"

type errorBody struct {
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	writeJSON(w, statusCode, errorBody{
		Status:    statusCode,
		Error:     http.StatusText(statusCode),
		Message:   message,
		Path:      r.URL.Path,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeServiceError translates a service failure into its status code.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch service.KindOf(err) {
	case service.KindNotFound:
		writeError(w, r, http.StatusNotFound, err.Error())
	case service.KindBadRequest:
		writeError(w, r, http.StatusBadRequest, err.Error())
	case service.KindForbidden:
		writeError(w, r, http.StatusForbidden, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, internalMessage)
	}
}
