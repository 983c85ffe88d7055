// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

package kvm

import (
	"errors"
	"fmt"
)

// ErrorCode represents specific error categories for KVM operations.
type ErrorCode int

const (
	// ErrAuth indicates the device rejected the client's credentials or session.
	ErrAuth ErrorCode = iota
	// ErrAPI indicates the device accepted the request but reported a failure.
	ErrAPI
	// ErrTransport indicates a connection-level failure (dial, TLS, reset, cancellation).
	ErrTransport
	// ErrUnknownKey indicates a symbolic key name with no device keycode.
	ErrUnknownKey
	// ErrUnsupportedCharacter indicates a character the key map cannot produce.
	ErrUnsupportedCharacter
	// ErrConfiguration indicates invalid or incomplete client configuration.
	ErrConfiguration
	// ErrProtocol indicates a malformed or unexpected device response.
	ErrProtocol
)

// String returns the string representation of the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrAuth:
		return "auth"
	case ErrAPI:
		return "api"
	case ErrTransport:
		return "transport"
	case ErrUnknownKey:
		return "unknown_key"
	case ErrUnsupportedCharacter:
		return "unsupported_character"
	case ErrConfiguration:
		return "configuration"
	case ErrProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// KVMError provides structured error information with operation context,
// error codes, and message wrapping for comprehensive error handling.
type KVMError struct {
	Op      string
	Code    ErrorCode
	Message string

	// Reason carries the device-reported error identifier for ErrAPI
	// errors (for example "MsdUnknownImageError"). Empty otherwise.
	Reason string

	Err error
}

// Error returns the formatted error message.
func (e *KVMError) Error() string {
	if e.Reason != "" {
		if e.Err != nil {
			return fmt.Sprintf("kvm %s: %s: %s: %s: %v", e.Code.String(), e.Op, e.Reason, e.Message, e.Err)
		}
		return fmt.Sprintf("kvm %s: %s: %s: %s", e.Code.String(), e.Op, e.Reason, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("kvm %s: %s: %s: %v", e.Code.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("kvm %s: %s: %s", e.Code.String(), e.Op, e.Message)
}

// Unwrap returns the underlying error for error chain unwrapping.
func (e *KVMError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target error.
func (e *KVMError) Is(target error) bool {
	var kvmErr *KVMError
	if errors.As(target, &kvmErr) {
		return e.Code == kvmErr.Code && e.Op == kvmErr.Op
	}
	return false
}

// NewKVMError creates a new KVMError with the specified parameters.
// This is the primary constructor for structured KVM errors.
func NewKVMError(op string, code ErrorCode, message string, err error) *KVMError {
	return &KVMError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WrapError wraps an existing error with KVM-specific context.
// Returns nil if the input error is nil, otherwise creates a new KVMError.
func WrapError(op string, code ErrorCode, message string, err error) error {
	if err == nil {
		return nil
	}
	return &KVMError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsKVMError checks if an error is a KVMError and optionally matches specific error codes.
// If no codes are provided, returns true for any KVMError. If codes are provided,
// returns true only if the error matches one of the specified codes.
func IsKVMError(err error, code ...ErrorCode) bool {
	var kvmErr *KVMError
	if !errors.As(err, &kvmErr) {
		return false
	}

	if len(code) == 0 {
		return true
	}

	for _, c := range code {
		if kvmErr.Code == c {
			return true
		}
	}
	return false
}

// GetErrorCode extracts the error code from a KVMError.
// Returns the error code if the error is a KVMError, otherwise returns -1.
func GetErrorCode(err error) ErrorCode {
	var kvmErr *KVMError
	if errors.As(err, &kvmErr) {
		return kvmErr.Code
	}
	return ErrorCode(-1)
}

// APIReason extracts the device-reported error identifier from an ErrAPI error.
// Returns the empty string for any other error.
func APIReason(err error) string {
	var kvmErr *KVMError
	if errors.As(err, &kvmErr) && kvmErr.Code == ErrAPI {
		return kvmErr.Reason
	}
	return ""
}

// authError creates a new authentication error.
func authError(op, message string, err error) error {
	return NewKVMError(op, ErrAuth, message, err)
}

// apiError creates a new device-reported API error. The reason is the
// device's error identifier from the response envelope, if present.
func apiError(op, reason, message string) error {
	return &KVMError{
		Op:      op,
		Code:    ErrAPI,
		Message: message,
		Reason:  reason,
	}
}

// transportError creates a new transport error.
func transportError(op, message string, err error) error {
	return NewKVMError(op, ErrTransport, message, err)
}

// unknownKeyError creates a new unknown key error.
func unknownKeyError(op, name string) error {
	return NewKVMError(op, ErrUnknownKey, fmt.Sprintf("no device keycode for key %q", name), nil)
}

// unsupportedCharacterError creates a new unsupported character error.
func unsupportedCharacterError(op string, ch rune) error {
	return NewKVMError(op, ErrUnsupportedCharacter, fmt.Sprintf("no key sequence for character %q", ch), nil)
}

// configurationError creates a new configuration error.
func configurationError(op, message string, err error) error {
	return NewKVMError(op, ErrConfiguration, message, err)
}

// protocolError creates a new protocol error.
func protocolError(op, message string, err error) error {
	return NewKVMError(op, ErrProtocol, message, err)
}
