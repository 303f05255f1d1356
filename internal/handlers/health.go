package handlers

import (
	"net/http"
	"time"
)

type HealthResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Health reports liveness. It does not touch the database.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Success:   true,
		Message:   "Server is healthy",
		Timestamp: time.Now().UTC(),
	})
}
