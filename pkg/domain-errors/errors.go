// Package domainerrors provides code-based domain errors shared across the
// service. Services create them, stores wrap sentinels into them, and the HTTP
// layer translates codes into status responses in one place.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error. Codes are stable identifiers: handlers map
// them to HTTP statuses and clients may switch on them.
type Code string

const (
	// CodeBadRequest covers malformed input that never reached domain logic.
	CodeBadRequest Code = "bad_request"
	// CodeValidation covers input that parsed but violates a domain rule:
	// missing required field, malformed value, remark length/charset.
	CodeValidation Code = "validation_failed"
	// CodeDuplicateRecord is returned when a new record's identifying tuple
	// collides with an existing persisted record in the same category.
	CodeDuplicateRecord Code = "duplicate_record"
	// CodeDataIntegrity marks preconditions that must disable an action up
	// front, e.g. no resolvable original document number before approve.
	CodeDataIntegrity Code = "data_integrity"
	// CodeUnauthorized covers missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden covers an actor attempting an action their role does not
	// permit. Rejected before any network call.
	CodeForbidden Code = "forbidden"
	// CodeNotFound maps store misses onto the API surface.
	CodeNotFound Code = "not_found"
	// CodeConflict covers concurrent-modification and invalid-state failures.
	CodeConflict Code = "conflict"
	// CodeExternalService covers the OTP service, signing authority, registry
	// or document store being unreachable or rejecting a call.
	CodeExternalService Code = "external_service"
	// CodeTimeout is distinct from CodeExternalService because a timeout at
	// the signing step leaves the signing authority's own state unknown.
	CodeTimeout Code = "timeout"
	// CodeInternal is the fallback for unexpected failures.
	CodeInternal Code = "internal"
)

// Error carries a code, a user-safe message and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause stays
// reachable through errors.Is/As for infrastructure sentinel checks.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in domain logic.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status the transport layer writes.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation:
		return http.StatusBadRequest
	case CodeDuplicateRecord, CodeConflict:
		return http.StatusConflict
	case CodeDataIntegrity:
		return http.StatusPreconditionFailed
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeExternalService:
		return http.StatusBadGateway
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
