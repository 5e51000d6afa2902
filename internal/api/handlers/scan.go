// Package handlers provides HTTP request handlers for the portprobe API.
// This file implements target expansion and batch scan endpoints.
package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anstrom/portprobe/internal/api/middleware"
	"github.com/anstrom/portprobe/internal/errors"
	"github.com/anstrom/portprobe/internal/logging"
	"github.com/anstrom/portprobe/internal/probe"
	"github.com/anstrom/portprobe/internal/targets"
)

// ScanHandler handles expansion and scan endpoints.
type ScanHandler struct {
	engine       Engine
	logger       *logging.Logger
	maxBodySize  int64
	maxBatchSize int
}

// NewScanHandler creates a new scan handler. maxBatchSize 0 means unlimited.
func NewScanHandler(engine Engine, logger *logging.Logger, maxBodySize int64, maxBatchSize int) *ScanHandler {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	return &ScanHandler{
		engine:       engine,
		logger:       logger.WithFields("handler", "scan"),
		maxBodySize:  maxBodySize,
		maxBatchSize: maxBatchSize,
	}
}

// ExpandRequest represents a target expansion request.
type ExpandRequest struct {
	IPRange   string `json:"ip_range" validate:"max=128"`
	PortRange string `json:"port_range" validate:"max=4096"`
	Protocol  string `json:"protocol,omitempty" validate:"max=8"`
}

// ScanRequest represents a batch scan request.
type ScanRequest struct {
	Targets []TargetRequest `json:"targets" validate:"dive"`
}

// TargetRequest is one target in a scan request. Protocol defaults to tcp.
type TargetRequest struct {
	IP       string           `json:"ip" validate:"required,ip4_addr"`
	Port     int              `json:"port" validate:"min=1,max=65535"`
	Protocol targets.Protocol `json:"protocol"`
}

// ScanResponse represents a batch scan response.
type ScanResponse struct {
	Results []probe.Result `json:"results"`
}

var errRangesRequired = errors.NewScanError(errors.CodeValidation, "IP range and port range are required")

// Expand handles POST /api/v1/expand and the legacy /api/expand_targets.
func (h *ScanHandler) Expand(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r)

	var req ExpandRequest
	if err := parseJSON(w, r, h.maxBodySize, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if strings.TrimSpace(req.IPRange) == "" || strings.TrimSpace(req.PortRange) == "" {
		writeError(w, r, errRangesRequired)
		return
	}

	expansion, err := h.engine.Expand(req.IPRange, req.PortRange, req.Protocol)
	if err != nil {
		if !errors.IsClientFault(err) {
			h.logger.WithError(err).Error("Target expansion failed", "request_id", requestID)
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, expansion)
}

// Scan handles POST /api/v1/scan and the legacy /api/scan_batch. Results are
// returned in completion order.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r)

	var req ScanRequest
	if err := parseJSON(w, r, h.maxBodySize, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if len(req.Targets) == 0 {
		writeJSON(w, r, http.StatusOK, ScanResponse{Results: []probe.Result{}})
		return
	}

	if err := h.checkBatchSize(len(req.Targets)); err != nil {
		writeError(w, r, err)
		return
	}

	start := time.Now()
	results := h.engine.Scan(r.Context(), toTargets(req.Targets))

	h.logger.Info("Batch scan served",
		"request_id", requestID,
		"targets", len(req.Targets),
		"duration_ms", time.Since(start).Milliseconds())

	writeJSON(w, r, http.StatusOK, ScanResponse{Results: results})
}

func (h *ScanHandler) checkBatchSize(n int) error {
	if h.maxBatchSize > 0 && n > h.maxBatchSize {
		return errors.NewScanError(errors.CodeValidation,
			fmt.Sprintf("too many targets: %d (max %d)", n, h.maxBatchSize))
	}
	return nil
}

func toTargets(reqs []TargetRequest) []targets.Target {
	out := make([]targets.Target, len(reqs))
	for i, t := range reqs {
		out[i] = targets.Target{IP: t.IP, Port: t.Port, Protocol: t.Protocol}
	}
	return out
}
