// Package handlers provides HTTP request handlers for the portprobe API.
// This file implements the streaming scan endpoint over WebSocket.
package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/anstrom/portprobe/internal/api/middleware"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed for the client to send its scan request.
	requestWait = 60 * time.Second
)

// Stream message types.
const (
	MessageTypeResult   = "result"
	MessageTypeComplete = "complete"
	MessageTypeError    = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS layer in front of the router.
		return true
	},
}

// StreamMessage is the envelope for every server-sent stream frame.
type StreamMessage struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

// StreamSummary is the payload of the final complete message.
type StreamSummary struct {
	Total      int            `json:"total"`
	States     map[string]int `json:"states"`
	DurationMS int64          `json:"duration_ms"`
}

// Stream handles GET /api/v1/scan/stream. The client sends one ScanRequest;
// the server answers with one result message per finished probe, then a
// complete message, then closes the connection.
func (h *ScanHandler) Stream(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "request_id", requestID, "error", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			h.logger.Debug("Error closing stream connection", "request_id", requestID, "error", err)
		}
	}()

	conn.SetReadLimit(h.maxBodySize)
	if err := conn.SetReadDeadline(time.Now().Add(requestWait)); err != nil {
		h.logger.Error("Failed to set read deadline", "request_id", requestID, "error", err)
		return
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		h.logger.Debug("Stream closed before scan request", "request_id", requestID, "error", err)
		return
	}

	var req ScanRequest
	err = decodeStrict(bytes.NewReader(data), &req)
	if err == nil {
		err = validateStruct(&req)
	}
	if err == nil {
		err = h.checkBatchSize(len(req.Targets))
	}
	if err != nil {
		_ = h.send(conn, requestID, MessageTypeError, ErrorResponse{
			Error:     messageFor(err),
			Timestamp: time.Now().UTC(),
			RequestID: requestID,
		})
		h.close(conn, websocket.ClosePolicyViolation, "invalid scan request")
		return
	}

	start := time.Now()
	summary := StreamSummary{States: make(map[string]int)}
	failed := false

	for res := range h.engine.Stream(r.Context(), toTargets(req.Targets)) {
		summary.Total++
		summary.States[string(res.State)]++
		if failed {
			// Keep draining so the dispatcher can finish.
			continue
		}
		if err := h.send(conn, requestID, MessageTypeResult, res); err != nil {
			h.logger.Debug("Stream client went away", "request_id", requestID, "error", err)
			failed = true
		}
	}
	if failed {
		return
	}

	summary.DurationMS = time.Since(start).Milliseconds()
	if err := h.send(conn, requestID, MessageTypeComplete, summary); err != nil {
		return
	}

	h.logger.Info("Stream scan served",
		"request_id", requestID,
		"targets", summary.Total,
		"duration_ms", summary.DurationMS)

	h.close(conn, websocket.CloseNormalClosure, "scan complete")
}

func (h *ScanHandler) send(conn *websocket.Conn, requestID, msgType string, data interface{}) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(StreamMessage{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Data:      data,
		RequestID: requestID,
	})
}

func (h *ScanHandler) close(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
