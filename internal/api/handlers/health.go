// Package handlers provides HTTP request handlers for the portprobe API.
// This file implements the health check endpoint.
package handlers

import (
	"net/http"
	"runtime"
	"time"
)

// Status constants.
const (
	StatusHealthy = "healthy"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: time.Now(),
	}
}

// HealthResponse represents a liveness check response.
type HealthResponse struct {
	Status     string    `json:"status"`
	Version    string    `json:"version,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Uptime     string    `json:"uptime"`
	Goroutines int       `json:"goroutines"`
}

// Health handles GET /api/v1/health. The engine holds no external
// dependencies, so liveness is the only check.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:     StatusHealthy,
		Version:    h.version,
		Timestamp:  time.Now().UTC(),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
	})
}
