package api

import (
	"context"

	"github.com/khanghh/kmfa/internal/auth"
)

type AuthService interface {
	Authenticator
	Register(ctx context.Context, username, email, password string) (*auth.Profile, error)
	Login(ctx context.Context, username, password, mfaCode string) (*auth.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	GetProfile(ctx context.Context, principal *auth.Principal) (*auth.Profile, error)
	GetMfaStatus(ctx context.Context, principal *auth.Principal) (*auth.MfaStatus, error)
	SetupMfa(ctx context.Context, principal *auth.Principal) (*auth.MfaSetupResult, error)
	VerifyMfa(ctx context.Context, principal *auth.Principal, code string) (*auth.MfaStatus, error)
	DisableMfa(ctx context.Context, principal *auth.Principal, code string) error
	VerifyBackupCode(ctx context.Context, username, code string) (*auth.RecoveryResult, error)
	ResetMfa(ctx context.Context, recoveryToken string) error
	DeleteAccount(ctx context.Context, principal *auth.Principal, password string) error
}
