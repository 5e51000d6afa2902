package handlers

import (
	"net/http"

	"github.com/anstrom/portprobe/internal/services"
)

// CatalogHandler serves the read-only service table and port presets.
type CatalogHandler struct {
	engine Engine
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(engine Engine) *CatalogHandler {
	return &CatalogHandler{engine: engine}
}

// PresetsResponse lists the named port presets.
type PresetsResponse struct {
	Presets []services.Preset `json:"presets"`
}

// Services handles GET /api/v1/services and the legacy /api/common-ports.
func (h *CatalogHandler) Services(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.engine.ServiceTable())
}

// Presets handles GET /api/v1/presets.
func (h *CatalogHandler) Presets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, PresetsResponse{Presets: h.engine.Presets()})
}
