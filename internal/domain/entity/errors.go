package entity

import (
	"errors"
	"fmt"
)

// ErrIntegrationUnavailable is reported when the wallet integration boundary
// object is not present. Mutating actions become no-ops in that state.
var ErrIntegrationUnavailable = errors.New("wallet integration not loaded")

// ErrActionInFlight is returned when a mutating staking action of the same
// kind is already pending for the wallet.
var ErrActionInFlight = errors.New("staking action already in progress")

// ValidationError reports invalid local input caught before any external
// call. It is surfaced to the caller and never logged as a system fault.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// BridgeError is an external call that resolved unsuccessfully: either the
// integration answered success=false or the transport failed. The message is
// safe to surface to the user.
type BridgeError struct {
	Op      string
	Message string
	cause   error
}

func (e *BridgeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s failed", e.Op)
}

func (e *BridgeError) Unwrap() error {
	return e.cause
}

// UserMessage returns the message to show in the UI banner, falling back to
// a generic text when the integration carried none.
func (e *BridgeError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "Transaction failed"
}

// NewBridgeError builds a BridgeError for the given operation.
func NewBridgeError(op, message string, cause error) *BridgeError {
	return &BridgeError{Op: op, Message: message, cause: cause}
}
