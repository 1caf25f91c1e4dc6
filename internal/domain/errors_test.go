package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_Values(t *testing.T) {
	// The numeric codes are part of the external contract.
	assert.Equal(t, ErrorCode(1), CodeUnauthorized)
	assert.Equal(t, ErrorCode(2), CodeInsufficientFunds)
	assert.Equal(t, ErrorCode(3), CodeInvalidAsset)
	assert.Equal(t, ErrorCode(4), CodeTransferFailed)
	assert.Equal(t, ErrorCode(5), CodeComplianceCheckFailed)
	assert.Equal(t, ErrorCode(6), CodeInvalidInput)
	assert.Equal(t, ErrorCode(7), CodeInsufficientShares)
	assert.Equal(t, ErrorCode(8), CodeEventLoggingFailed)
}

func TestError_Is(t *testing.T) {
	err := NewError(CodeInsufficientShares, "sender holds 5 shares, needs 10")

	assert.ErrorIs(t, err, ErrInsufficientShares)
	assert.NotErrorIs(t, err, ErrUnauthorized)

	// Matching survives wrapping.
	wrapped := fmt.Errorf("transfer rejected: %w", err)
	assert.ErrorIs(t, wrapped, ErrInsufficientShares)
}

func TestCodeOf(t *testing.T) {
	code, ok := CodeOf(NewError(CodeInvalidAsset, "asset 9 does not exist"))
	assert.True(t, ok)
	assert.Equal(t, CodeInvalidAsset, code)

	_, ok = CodeOf(errors.New("plain error"))
	assert.False(t, ok)
}

func TestError_Message(t *testing.T) {
	err := NewError(CodeComplianceCheckFailed, "recipient lacks approval")
	assert.Equal(t, "COMPLIANCE_CHECK_FAILED: recipient lacks approval", err.Error())

	bare := &Error{Code: CodeUnauthorized}
	assert.Equal(t, "UNAUTHORIZED", bare.Error())
}
