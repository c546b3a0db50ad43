package users

import "errors"

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrMfaFactorNotFound = errors.New("mfa factor not found")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrEmailRegistered   = errors.New("email already registered")
)
