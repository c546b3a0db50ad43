package twofactor

import "errors"

var (
	ErrEncryptionKeyTooShort = errors.New("encryption key too short")
	ErrEncryptionFailed      = errors.New("failed to encrypt secret")
	ErrDecryptionFailed      = errors.New("failed to decrypt secret")
	ErrCipherTooShort        = errors.New("cipher text too short")
	ErrInvalidCodeFormat     = errors.New("invalid code format")
	ErrInvalidSecret         = errors.New("invalid TOTP secret")
	ErrInvalidBackupCount    = errors.New("backup code count must be greater than 0")
)
