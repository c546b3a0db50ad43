package params

import "time"

const (
	ServerBodyLimit         = 1048576 // 1 MiB
	ServerIdleTimeout       = 30 * time.Second
	ServerReadTimeout       = 10 * time.Second
	ServerWriteTimeout      = 10 * time.Second
	HealthCheckServerAddr   = ":3001"          // health check server address
	RecoveryTokenKeyPrefix  = "r:"             // recovery token ids waiting to be consumed
	RefreshTokenKeyPrefix   = "f:"             // refresh token ids that may still be redeemed
	DefaultIssuerName       = "kmfa"           // issuer shown in authenticator apps
	AccessTokenExpiration   = 30 * time.Minute // access token lifetime
	RefreshTokenExpiration  = 7 * 24 * time.Hour
	RecoveryTokenExpiration = 10 * time.Minute // temporary token issued after backup code recovery
	DefaultPasswordHashCost = 12               // bcrypt cost, ~250ms on commodity hardware
	DefaultBackupCodeCost   = 10               // bcrypt cost for backup codes, 8 of them are hashed per setup
	BackupCodeCount         = 8                // backup codes generated per MFA setup
	BackupCodeLength        = 8                // hex characters per backup code
	TOTPPeriod              = 30               // seconds per TOTP step
	TOTPDigits              = 6                // digits per TOTP code
	TOTPSecretSize          = 20               // 160-bit TOTP secrets
	TOTPVerifyWindow        = 1                // accepted clock drift in steps on each side
	MinSigningKeyLength     = 32               // minimum length of the token signing key
	MinEncryptionKeyLength  = 32               // minimum length of the secret vault key material
	RecoveryTokenScope      = "mfa:reset"      // scope carried by recovery tokens
	MaxPasswordLength       = 72               // bcrypt input limit
	MinPasswordLength       = 8
)
