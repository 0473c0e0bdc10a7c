// Package domainerrors provides coded domain errors. Services attach a stable
// code when constructing or wrapping an error; transports translate codes into
// protocol-level status without inspecting error text.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error classification.
type Code string

const (
	// Input validation: caller-fixable, no state change occurred.
	CodeZeroIdentity Code = "zero_identity"
	CodeInvalidRole  Code = "invalid_role"
	CodeBadRequest   Code = "bad_request"

	// State preconditions: the current state does not satisfy the operation.
	// Retrying without an external state change cannot succeed.
	CodeNotRegistered Code = "not_registered"
	CodeUnknownEntity Code = "unknown_entity"

	// Authorization rejections: expected, frequent, normal control flow for
	// callers. Denied always wins over AccessBlocked in the gateway's order.
	CodeDenied        Code = "denied"
	CodeAccessBlocked Code = "access_blocked"
	CodeForbidden     Code = "forbidden"
	CodeUnauthorized  Code = "unauthorized"

	// Configuration: deployment wiring defects. Loud, never worked around.
	CodeLedgerNotConfigured Code = "ledger_not_configured"
	CodeUnauthorizedGateway Code = "unauthorized_gateway"

	CodeNotFound Code = "not_found"
	CodeInternal Code = "internal"
)

// Error carries a code alongside the message and an optional cause.
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

// New constructs a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error. The cause stays
// reachable through errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		if err == nil {
			break
		}
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the outermost code, defaulting to CodeInternal for uncoded
// errors so transports always have something to map.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code onto an HTTP status. Authorization
// rejections are 403s rather than 404s so callers can distinguish "blocked"
// from "no such resource"; configuration defects surface as 503 to make
// deployment problems loud.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeZeroIdentity, CodeInvalidRole, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotRegistered, CodeUnknownEntity:
		return http.StatusUnprocessableEntity
	case CodeDenied, CodeAccessBlocked, CodeForbidden, CodeUnauthorizedGateway:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeLedgerNotConfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
