package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response from the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Index     string `json:"index"`
	Files     int    `json:"files"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// NewHealthHandler creates an HTTP handler for the /health endpoint.
// It reports 200 when the index can be loaded and 503 otherwise.
func NewHealthHandler(index IndexLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		idx, err := index.Load(ctx, false)

		response := HealthResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")

		if err != nil {
			response.Status = "unhealthy"
			response.Index = "unavailable"
			response.Error = err.Error()
			w.WriteHeader(http.StatusServiceUnavailable) // 503
			json.NewEncoder(w).Encode(response)
			return
		}

		response.Status = "healthy"
		response.Index = "loaded"
		response.Files = len(idx.Files)
		w.WriteHeader(http.StatusOK) // 200
		json.NewEncoder(w).Encode(response)
	}
}
