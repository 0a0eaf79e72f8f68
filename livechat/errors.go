package livechat

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes the errors reported by the client and the widget.
type ErrorCode int

const (
	ErrorUnknown ErrorCode = iota
	ErrorConnection
	ErrorDisconnected
	ErrorInvalidConfig
	ErrorNotConnected
	ErrorEmptyMessage
	ErrorSerialization
	ErrorHistory
)

var errorCodeNames = [...]string{
	ErrorUnknown:       "unknown",
	ErrorConnection:    "connection_error",
	ErrorDisconnected:  "disconnected",
	ErrorInvalidConfig: "invalid_config",
	ErrorNotConnected:  "not_connected",
	ErrorEmptyMessage:  "empty_message",
	ErrorSerialization: "serialization_error",
	ErrorHistory:       "history_error",
}

func (e ErrorCode) String() string {
	if e >= 0 && int(e) < len(errorCodeNames) {
		return errorCodeNames[e]
	}
	return fmt.Sprintf("unknown_code_%d", e)
}

// Error carries a code, the failing step and the cause if any.
// errors.Is matches two *Error values by code alone.
type Error struct {
	Code  ErrorCode
	Op    string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("livechat %s: %s", e.Code, e.Op)
	}
	return fmt.Sprintf("livechat %s: %s: %v", e.Code, e.Op, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError returns an *Error without a cause.
func NewError(code ErrorCode, op string) *Error {
	return &Error{Code: code, Op: op}
}

// WrapError returns an *Error caused by err.
func WrapError(code ErrorCode, op string, err error) *Error {
	return &Error{Code: code, Op: op, Cause: err}
}

var (
	ErrNotConnected = NewError(ErrorNotConnected, "socket is not open")
	ErrEmptyMessage = NewError(ErrorEmptyMessage, "message is empty")
)

// IsConnectionError reports whether err came from dialing or from a dropped
// socket.
func IsConnectionError(err error) bool {
	var le *Error
	if !errors.As(err, &le) {
		return false
	}
	return le.Code == ErrorConnection || le.Code == ErrorDisconnected
}
