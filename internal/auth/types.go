package auth

import (
	"context"
	"time"

	"github.com/khanghh/kmfa/internal/audit"
	"github.com/khanghh/kmfa/model"
)

// Principal is the caller identity carried by a verified access token.
type Principal struct {
	AccountID  uint
	Username   string
	MfaEnabled bool
}

type Profile struct {
	ID         uint      `json:"id,string"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	MfaEnabled bool      `json:"mfaEnabled"`
	CreatedAt  time.Time `json:"createdAt"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type LoginResult struct {
	TokenPair
	Profile       Profile `json:"profile"`
	IncompleteMfa bool    `json:"incompleteMfa"`
}

type MfaSetupResult struct {
	Secret          string   `json:"secret"`
	ProvisioningURI string   `json:"provisioningUri"`
	BackupCodes     []string `json:"backupCodes"`
}

type MfaStatus struct {
	MfaEnabled        bool     `json:"mfaEnabled"`
	MfaVerified       bool     `json:"mfaVerified"`
	State             MfaState `json:"state"`
	UnusedBackupCodes int64    `json:"unusedBackupCodes"`
}

type RecoveryResult struct {
	RecoveryToken string `json:"recoveryToken"`
	TokenType     string `json:"tokenType"`
	ExpiresIn     int64  `json:"expiresIn"`
	Scope         string `json:"scope"`
}

// PasswordHasher is satisfied by users.PasswordHasher.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// Auditor is satisfied by audit.Recorder.
type Auditor interface {
	RecordLogin(ctx context.Context, record audit.LoginRecord) error
	RecordEvent(ctx context.Context, record audit.EventRecord) error
}

// Notifier is satisfied by mail.Notifier.
type Notifier interface {
	SendMfaEnabled(account *model.Account) error
	SendMfaDisabled(account *model.Account) error
	SendBackupCodeUsed(account *model.Account, remaining int64) error
	SendMfaReset(account *model.Account) error
}

func newProfile(account *model.Account) Profile {
	return Profile{
		ID:         account.ID,
		Username:   account.Username,
		Email:      account.Email,
		MfaEnabled: account.MfaEnabled,
		CreatedAt:  account.CreatedAt,
	}
}
