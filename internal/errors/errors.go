// Package errors provides structured error handling for portprobe operations.
// It defines error codes, error types, and utilities for creating and
// inspecting errors with context and structured information.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"
	CodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	CodeRateLimited   ErrorCode = "RATE_LIMITED"

	// Target expansion errors.
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeRangeTooLarge ErrorCode = "RANGE_TOO_LARGE"
	CodeTooManyPorts  ErrorCode = "TOO_MANY_PORTS"

	// Probe errors. These never escape a batch; they are folded into the
	// per-target result.
	CodeProbeTimeout ErrorCode = "PROBE_TIMEOUT"
	CodeProbeError   ErrorCode = "PROBE_ERROR"
)

// ScanError represents an error that occurred while expanding or probing targets.
type ScanError struct {
	Code    ErrorCode
	Message string
	Target  string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Target != "" {
		return fmt.Sprintf("[%s] %s (target: %s)", e.Code, msg, e.Target)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *ScanError) WithContext(key string, value interface{}) *ScanError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func newScanError(code ErrorCode, message, target string, cause error) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Target:  target,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewScanError creates a scan error with no target and no cause.
func NewScanError(code ErrorCode, message string) *ScanError {
	return newScanError(code, message, "", nil)
}

// NewScanErrorWithTarget creates a scan error naming the offending spec or target.
func NewScanErrorWithTarget(code ErrorCode, message, target string) *ScanError {
	return newScanError(code, message, target, nil)
}

// WrapScanError attaches a code and message to err.
func WrapScanError(code ErrorCode, message string, err error) *ScanError {
	return newScanError(code, message, "", err)
}

// WrapScanErrorWithTarget is WrapScanError with the offending spec or target.
func WrapScanErrorWithTarget(code ErrorCode, message, target string, err error) *ScanError {
	return newScanError(code, message, target, err)
}

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Code    ErrorCode
	Message string
	Field   string
	Value   interface{}
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigFieldError reports a bad or missing configuration field.
func NewConfigFieldError(code ErrorCode, message, field string, value interface{}) *ConfigError {
	return &ConfigError{Code: code, Message: message, Field: field, Value: value}
}

// WrapConfigError reports a failure to read or decode configuration.
func WrapConfigError(code ErrorCode, message string, err error) *ConfigError {
	return &ConfigError{Code: code, Message: message, Cause: err}
}

// GetCode extracts the error code from anywhere in the error chain.
func GetCode(err error) ErrorCode {
	var scanErr *ScanError
	if stderrors.As(err, &scanErr) {
		return scanErr.Code
	}
	var cfgErr *ConfigError
	if stderrors.As(err, &cfgErr) {
		return cfgErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}

// IsClientFault reports whether the error was caused by caller input and
// should be surfaced with a client-fault status.
func IsClientFault(err error) bool {
	switch GetCode(err) {
	case CodeInvalidFormat, CodeRangeTooLarge, CodeTooManyPorts, CodeValidation:
		return true
	default:
		return false
	}
}

// ErrInvalidFormat creates an error for a malformed IP or port specification.
func ErrInvalidFormat(spec string, cause error) *ScanError {
	return WrapScanErrorWithTarget(CodeInvalidFormat, "invalid format", spec, cause)
}

// ErrRangeTooLarge creates an error for an address range above the host limit.
func ErrRangeTooLarge(spec string, limit int) *ScanError {
	return NewScanErrorWithTarget(CodeRangeTooLarge,
		fmt.Sprintf("IP range is too large (max %d addresses)", limit), spec).
		WithContext("limit", limit)
}

// ErrTooManyPorts creates an error for a port set above the port limit.
func ErrTooManyPorts(count, limit int) *ScanError {
	return NewScanError(CodeTooManyPorts,
		fmt.Sprintf("too many ports: %d (max %d)", count, limit)).
		WithContext("count", count).
		WithContext("limit", limit)
}

// ErrConfigInvalid reports a configuration value outside its allowed range.
func ErrConfigInvalid(field string, value interface{}) *ConfigError {
	return NewConfigFieldError(CodeValidation, fmt.Sprintf("invalid value %v", value), field, value)
}

// ErrConfigMissing reports a required configuration field left empty.
func ErrConfigMissing(field string) *ConfigError {
	return NewConfigFieldError(CodeConfiguration, "required field is empty", field, nil)
}
