// Package handlers provides HTTP request handlers for the portprobe API.
// This file contains common utilities shared across all handlers.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/anstrom/portprobe/internal/api/middleware"
	"github.com/anstrom/portprobe/internal/errors"
)

// DefaultMaxBodySize caps request bodies when no limit is configured.
const DefaultMaxBodySize int64 = 1024 * 1024

// ErrorResponse represents an API error response. Error carries the
// human-readable message.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log error but don't try to write another response
		slog.Error("Failed to encode JSON response",
			"request_id", middleware.GetRequestID(r),
			"error", err)
	}
}

// writeError writes an error response with the status derived from err.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)

	response := ErrorResponse{
		Error:     messageFor(err),
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(r),
	}
	if code := errors.GetCode(err); code != errors.CodeUnknown {
		response.Code = string(code)
	}

	writeJSON(w, r, status, response)
}

// messageFor renders err without the bracketed code prefix, which the
// response carries separately.
func messageFor(err error) string {
	var scanErr *errors.ScanError
	if !stderrors.As(err, &scanErr) {
		return err.Error()
	}
	msg := scanErr.Message
	if scanErr.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, scanErr.Cause)
	}
	if scanErr.Target != "" {
		msg = fmt.Sprintf("%s (target: %s)", msg, scanErr.Target)
	}
	return msg
}

// statusForError maps an error onto an HTTP status code.
func statusForError(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.IsCode(err, errors.CodeUnauthorized):
		return http.StatusUnauthorized
	case errors.IsCode(err, errors.CodeRateLimited):
		return http.StatusTooManyRequests
	case errors.IsClientFault(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseJSON decodes the request body strictly into dest and validates it.
func parseJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dest interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errors.NewScanError(errors.CodeValidation, "request body is empty")
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := decodeStrict(r.Body, dest); err != nil {
		return err
	}

	return validateStruct(dest)
}

func decodeStrict(body io.Reader, dest interface{}) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return fmt.Errorf("request body too large (max %d bytes): %w", tooLarge.Limit, err)
		}
		if stderrors.Is(err, io.EOF) {
			return errors.NewScanError(errors.CodeValidation, "request body is empty")
		}
		return errors.WrapScanError(errors.CodeValidation, "invalid JSON", err)
	}

	return nil
}

// validateStruct runs validator tags and folds failures into one
// validation error naming each offending field.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.WrapScanError(errors.CodeValidation, "validation failed", err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return errors.NewScanError(errors.CodeValidation,
		"validation failed: "+strings.Join(fields, ", "))
}
