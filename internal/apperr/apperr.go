// Package apperr holds the error taxonomy shared by every action. Callers
// branch on Kind, or on the sentinels with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	NotFound
	Unauthorized
	InvalidInput
	Conflict
	Transient
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Unauthorized:
		return "unauthorized"
	case InvalidInput:
		return "invalid_input"
	case Conflict:
		return "conflict"
	case Transient:
		return "transient"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two *Error values by code so wrapped copies of a sentinel still
// compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

func newSentinel(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrUserNotFound      = newSentinel(NotFound, "user_not_found", "user not found")
	ErrOrganizerNotFound = newSentinel(NotFound, "organizer_not_found", "organizer not found")
	ErrEventNotFound     = newSentinel(NotFound, "event_not_found", "event not found")
	ErrCategoryNotFound  = newSentinel(NotFound, "category_not_found", "category not found")
	ErrOrderNotFound     = newSentinel(NotFound, "order_not_found", "order not found")
	ErrUnauthorized      = newSentinel(Unauthorized, "unauthorized", "unauthorized")
	ErrInvalidImageURL   = newSentinel(InvalidInput, "invalid_image_url", "invalid image url")
	ErrInvalidID         = newSentinel(InvalidInput, "invalid_id", "invalid id")
	ErrInvalidInput      = newSentinel(InvalidInput, "invalid_input", "invalid input")
	ErrMissingMetadata   = newSentinel(InvalidInput, "missing_metadata", "missing metadata")
	ErrUpdateFailed      = newSentinel(NotFound, "update_failed", "user update failed")
	ErrDuplicateOrder    = newSentinel(Conflict, "duplicate_order", "order already recorded")
	ErrCategoryExists    = newSentinel(Conflict, "category_exists", "category already exists")
	// ErrSessionInFlight means another delivery holds the checkout session and
	// has not committed yet; the sender should retry.
	ErrSessionInFlight = newSentinel(Transient, "session_in_flight", "checkout session is being recorded")
)

// Invalid reports a validation failure with a caller supplied reason.
func Invalid(reason string) error {
	return &Error{Kind: InvalidInput, Code: ErrInvalidInput.Code, Message: reason}
}

// Wrap attaches context to a sentinel while keeping errors.Is working.
func Wrap(sentinel *Error, format string, args ...any) error {
	return &Error{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Message: fmt.Sprintf(format, args...),
		Err:     sentinel,
	}
}

// TransientErr marks a store or network failure; op names the failing step.
func TransientErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: Transient, Code: "transient", Message: op, Err: err}
}

func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

func IsTransient(err error) bool {
	return err != nil && KindOf(err) == Transient
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusForbidden
	case InvalidInput:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case Transient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Public is the message safe to hand back to a client.
func Public(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != Transient && ae.Kind != Internal {
		return ae.Message
	}
	return "internal error"
}
