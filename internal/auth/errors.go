package auth

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-checkable category of a failed operation.
type Kind string

const (
	KindValidation      Kind = "VALIDATION_ERROR"
	KindConflict        Kind = "CONFLICT"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindMfaRequired     Kind = "MFA_REQUIRED"
	KindInvalidMfaCode  Kind = "INVALID_MFA_CODE"
	KindSetupRequired   Kind = "SETUP_REQUIRED"
	KindNotEnabled      Kind = "NOT_ENABLED"
	KindNotFound        Kind = "NOT_FOUND"
	KindInternal        Kind = "INTERNAL_ERROR"
)

// Error is returned by every AuthService operation. Reason narrows the kind
// (e.g. incomplete_mfa_setup under CONFLICT); Message is safe to show to the
// caller.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Is matches errors of the same kind and reason so that errors.Is works
// against the package values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Reason == t.Reason
}

func newError(kind Kind, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

var (
	ErrInvalidRequest      = newError(KindValidation, "invalid_request", "request is malformed")
	ErrInvalidMfaCodeShape = newError(KindValidation, "invalid_code_format", "code must be 6 digits")
	ErrUsernameTaken       = newError(KindConflict, "username_taken", "username already taken")
	ErrEmailRegistered     = newError(KindConflict, "email_registered", "email already registered")
	ErrIncompleteMfaSetup  = newError(KindConflict, "incomplete_mfa_setup", "account exists with incomplete MFA setup, log in to finish it")
	ErrMfaAlreadyEnabled   = newError(KindConflict, "mfa_already_enabled", "MFA is already enabled, disable it before setting it up again")
	ErrInvalidCredentials  = newError(KindUnauthenticated, "invalid_credentials", "invalid username or password")
	ErrInvalidToken        = newError(KindUnauthenticated, "invalid_token", "token is invalid")
	ErrTokenExpired        = newError(KindUnauthenticated, "token_expired", "token has expired")
	ErrTokenRevoked        = newError(KindUnauthenticated, "token_revoked", "token has been revoked")
	ErrMfaRequired         = newError(KindMfaRequired, "mfa_required", "MFA code required")
	ErrInvalidMfaCode      = newError(KindInvalidMfaCode, "invalid_mfa_code", "invalid MFA code")
	ErrInvalidBackupCode   = newError(KindInvalidMfaCode, "invalid_backup_code", "invalid backup code")
	ErrSetupRequired       = newError(KindSetupRequired, "setup_required", "MFA setup required")
	ErrMfaNotEnabled       = newError(KindNotEnabled, "mfa_not_enabled", "MFA is not enabled")
	ErrAccountNotFound     = newError(KindNotFound, "account_not_found", "account not found")
	ErrDecryptionFailure   = newError(KindInternal, "decryption_failure", "internal server error")
	ErrInternal            = newError(KindInternal, "internal_error", "internal server error")
)

// KindOf returns the kind of err, INTERNAL_ERROR for anything that is not an
// *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
