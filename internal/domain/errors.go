package domain

import (
	"errors"
	"fmt"
)

// ErrorCode identifies one of the ledger's closed set of failure kinds.
// The numeric values are part of the external contract and must not be
// reordered.
type ErrorCode uint8

const (
	CodeUnauthorized ErrorCode = iota + 1
	CodeInsufficientFunds // reserved, never returned
	CodeInvalidAsset
	CodeTransferFailed
	CodeComplianceCheckFailed
	CodeInvalidInput
	CodeInsufficientShares
	CodeEventLoggingFailed
)

// String returns the canonical tag for the code.
func (c ErrorCode) String() string {
	switch c {
	case CodeUnauthorized:
		return "UNAUTHORIZED"
	case CodeInsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	case CodeInvalidAsset:
		return "INVALID_ASSET"
	case CodeTransferFailed:
		return "TRANSFER_FAILED"
	case CodeComplianceCheckFailed:
		return "COMPLIANCE_CHECK_FAILED"
	case CodeInvalidInput:
		return "INVALID_INPUT"
	case CodeInsufficientShares:
		return "INSUFFICIENT_SHARES"
	case CodeEventLoggingFailed:
		return "EVENT_LOGGING_FAILED"
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(c))
}

// Error is a ledger failure carrying one of the closed error codes.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code.String(), e.Message)
}

// Is reports whether target is a ledger error with the same code, so that
// errors.Is(err, domain.ErrInsufficientShares) matches any wrapped instance.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewError builds a ledger error with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Sentinel values for errors.Is comparisons.
var (
	ErrUnauthorized          = &Error{Code: CodeUnauthorized}
	ErrInvalidAsset          = &Error{Code: CodeInvalidAsset}
	ErrTransferFailed        = &Error{Code: CodeTransferFailed}
	ErrComplianceCheckFailed = &Error{Code: CodeComplianceCheckFailed}
	ErrInvalidInput          = &Error{Code: CodeInvalidInput}
	ErrInsufficientShares    = &Error{Code: CodeInsufficientShares}
	ErrEventLoggingFailed    = &Error{Code: CodeEventLoggingFailed}
)

// CodeOf extracts the ledger error code from err, if any.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}
