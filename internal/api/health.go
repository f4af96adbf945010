// Package api provides the HTTP handlers of the studyroom companion server
package api

import (
	"encoding/json"
	"net/http"
)

// HealthResponse represents the response for health check endpoints
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthLiveHandler handles liveness checks
func HealthLiveHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "UP"})
}

// HealthReadyHandler reports UP once the checker is ready, DOWN otherwise.
// A nil checker is always ready.
func HealthReadyHandler(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil && !checker.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "DOWN"})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: "UP"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
