package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns formatted string", func(t *testing.T) {
		err := New(ErrCodeNotFound, "Proposal not found")
		assert.Equal(t, "NOT_FOUND: Proposal not found", err.Error())
	})

	t.Run("Error with cause includes cause", func(t *testing.T) {
		cause := errors.New("database connection failed")
		err := Wrap(ErrCodeDatabase, "Database error", cause)
		assert.Contains(t, err.Error(), "DATABASE_ERROR")
		assert.Contains(t, err.Error(), "Database error")
		assert.Contains(t, err.Error(), "database connection failed")
	})

	t.Run("WithCause adds cause to error", func(t *testing.T) {
		cause := errors.New("original error")
		err := New(ErrCodeInternal, "Something went wrong").WithCause(cause)
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("WithDetails adds details to error", func(t *testing.T) {
		details := map[string]string{"field": "email", "reason": "invalid format"}
		err := New(ErrCodeValidation, "Validation failed").WithDetails(details)
		assert.Equal(t, details, err.Details)
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name         string
		constructor  func() *AppError
		expectedCode ErrorCode
	}{
		{"Unauthorized", func() *AppError { return Unauthorized("test") }, ErrCodeUnauthorized},
		{"Forbidden", func() *AppError { return Forbidden("test") }, ErrCodeForbidden},
		{"InvalidToken", func() *AppError { return InvalidToken("test") }, ErrCodeInvalidToken},
		{"InvalidCredentials", func() *AppError { return InvalidCredentials() }, ErrCodeInvalidCredentials},
		{"InvalidCode", func() *AppError { return InvalidCode() }, ErrCodeInvalidCode},
		{"CodeExpired", func() *AppError { return CodeExpired() }, ErrCodeCodeExpired},
		{"NotFound", func() *AppError { return NotFound("Proposal") }, ErrCodeNotFound},
		{"AlreadyExists", func() *AppError { return AlreadyExists("Invoice") }, ErrCodeAlreadyExists},
		{"ValidationError", func() *AppError { return ValidationError("test") }, ErrCodeValidation},
		{"InvalidInput", func() *AppError { return InvalidInput("email", "invalid") }, ErrCodeInvalidInput},
		{"MissingRequired", func() *AppError { return MissingRequired("code") }, ErrCodeMissingRequired},
		{"RateLimitExceeded", func() *AppError { return RateLimitExceeded() }, ErrCodeRateLimitExceeded},
		{"DataIntegrity", func() *AppError { return DataIntegrity("test") }, ErrCodeDataIntegrity},
		{"Internal", func() *AppError { return Internal("test") }, ErrCodeInternal},
		{"Database", func() *AppError { return Database(errors.New("boom")) }, ErrCodeDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.constructor()
			assert.Equal(t, tt.expectedCode, err.Code)
		})
	}
}

func TestGenericOutcomesDoNotLeakDetail(t *testing.T) {
	// Unknown email and wrong password must produce byte-identical
	// responses, and so must every token verification failure.
	assert.Equal(t, InvalidCredentials(), InvalidCredentials())
	assert.Equal(t, "Invalid email or password.", InvalidCredentials().Message)
	assert.Equal(t, "Invalid code.", InvalidCode().Message)
}

func TestAsAppError(t *testing.T) {
	t.Run("returns AppError for AppError", func(t *testing.T) {
		orig := InvalidCode()
		appErr, ok := AsAppError(orig)
		assert.True(t, ok)
		assert.Equal(t, orig, appErr)
	})

	t.Run("finds AppError through wrapping", func(t *testing.T) {
		wrapped := Wrap(ErrCodeDatabase, "query failed", errors.New("io timeout"))
		appErr, ok := AsAppError(wrapped)
		assert.True(t, ok)
		assert.Equal(t, ErrCodeDatabase, appErr.Code)
	})

	t.Run("returns false for plain errors", func(t *testing.T) {
		_, ok := AsAppError(errors.New("plain"))
		assert.False(t, ok)
	})
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeCodeExpired, GetCode(CodeExpired()))
	assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain")))
}
