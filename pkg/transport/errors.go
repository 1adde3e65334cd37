package transport

import (
	"errors"
	"fmt"
)

// Normalized error codes surfaced to callers. Any other code is the
// server-provided error_code passed through unchanged.
const (
	CodeNetworkError         = "NETWORK_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeValidationError      = "VALIDATION_ERROR"
	CodeServerError          = "SERVER_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeSubscriptionRequired = "SUBSCRIPTION_REQUIRED"
	CodeFeatureLimitExceeded = "FEATURE_LIMIT_EXCEEDED"
)

// Error is the single error shape produced at the transport boundary.
// Service functions rethrow it untouched; callers branch on Code or
// the flags.
type Error struct {
	// Status is the HTTP status, or 0 when no response was received.
	Status  int
	Code    string
	Message string

	// RequireLogin is set after an unrecoverable 401: credentials have
	// been cleared and the user must authenticate again.
	RequireLogin bool
	// RequireSubscription is set on 403 SUBSCRIPTION_REQUIRED.
	RequireSubscription bool
	// LimitExceeded is set on 403 FEATURE_LIMIT_EXCEEDED.
	LimitExceeded bool
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// AsError unwraps err to a *Error when possible.
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// IsCode reports whether err is a transport error carrying code.
func IsCode(err error, code string) bool {
	te, ok := AsError(err)
	return ok && te.Code == code
}
