package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/khanghh/kmfa/internal/audit"
	"github.com/khanghh/kmfa/internal/store"
	"github.com/khanghh/kmfa/internal/twofactor"
	"github.com/khanghh/kmfa/internal/users"
	"github.com/khanghh/kmfa/model"
	"github.com/khanghh/kmfa/params"
	"github.com/spf13/cast"
)

const bearerTokenType = "Bearer"

type AuthServiceOptions struct {
	Store            users.CredentialStore
	Hasher           PasswordHasher
	Vault            *twofactor.Vault
	TOTP             *twofactor.TOTP
	BackupCodes      *twofactor.BackupCodeManager
	Tokens           *TokenIssuer
	Storage          store.Storage
	Auditor          Auditor
	Notifier         Notifier
	IssuerName       string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	RecoveryTokenTTL time.Duration
	Now              func() time.Time
}

// AuthService drives registration, login and the MFA lifecycle of an account.
// Every state change runs in one credential store transaction with the
// account row locked.
type AuthService struct {
	store            users.CredentialStore
	hasher           PasswordHasher
	vault            *twofactor.Vault
	totp             *twofactor.TOTP
	backupCodes      *twofactor.BackupCodeManager
	tokens           *TokenIssuer
	refreshStore     store.Store[uint]
	recoveryStore    store.Store[uint]
	auditor          Auditor
	notifier         Notifier
	issuerName       string
	accessTokenTTL   time.Duration
	refreshTokenTTL  time.Duration
	recoveryTokenTTL time.Duration
	now              func() time.Time
	dummyDigest      string
}

// failure passes *Error values through and hides everything else behind
// ErrInternal after logging it.
func (s *AuthService) failure(msg string, err error) error {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr
	}
	slog.Error(msg, "error", err)
	return ErrInternal
}

func (s *AuthService) recordEvent(ctx context.Context, record audit.EventRecord) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.RecordEvent(ctx, record); err != nil {
		slog.Warn("Failed to record audit event", "event", record.EventType, "accountID", record.AccountID, "error", err)
	}
}

func (s *AuthService) recordLogin(ctx context.Context, record audit.LoginRecord) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.RecordLogin(ctx, record); err != nil {
		slog.Warn("Failed to record login", "username", record.Username, "error", err)
	}
}

func (s *AuthService) notify(kind string, account *model.Account, send func(Notifier) error) {
	if s.notifier == nil {
		return
	}
	if err := send(s.notifier); err != nil {
		slog.Warn("Failed to send notification", "kind", kind, "accountID", account.ID, "error", err)
	}
}

func lockAccount(ctx context.Context, tx users.CredentialStore, accountID uint) (*model.Account, error) {
	account, err := tx.LockAccount(ctx, accountID)
	if errors.Is(err, users.ErrAccountNotFound) {
		return nil, ErrAccountNotFound
	}
	return account, err
}

func findMfaFactor(ctx context.Context, st users.CredentialStore, accountID uint) (*model.MfaFactor, error) {
	factor, err := st.FindMfaFactor(ctx, accountID)
	if errors.Is(err, users.ErrMfaFactorNotFound) {
		return nil, nil
	}
	return factor, err
}

// verifyTOTP checks a well-formed code against the factor's secret at the
// current time, allowing one step of drift.
func (s *AuthService) verifyTOTP(factor *model.MfaFactor, code string) error {
	secret, err := s.vault.Decrypt(factor.Secret)
	if err != nil {
		slog.Error("Failed to decrypt MFA secret", "accountID", factor.AccountID, "error", err)
		return ErrDecryptionFailure
	}
	ok, err := s.totp.Verify(secret, code, s.now(), params.TOTPVerifyWindow)
	if errors.Is(err, twofactor.ErrInvalidCodeFormat) {
		return ErrInvalidMfaCodeShape
	}
	if err != nil {
		return s.failure("Failed to verify TOTP code", err)
	}
	if !ok {
		return ErrInvalidMfaCode
	}
	return nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, account *model.Account) (*TokenPair, error) {
	subject := cast.ToString(account.ID)
	mfaEnabled := account.MfaEnabled
	accessClaims := TokenClaims{Username: account.Username, MfaEnabled: &mfaEnabled}
	accessClaims.Subject = subject
	accessToken, _, err := s.tokens.Issue(TokenTypeAccess, accessClaims, s.accessTokenTTL)
	if err != nil {
		return nil, err
	}
	refreshClaims := TokenClaims{}
	refreshClaims.Subject = subject
	refreshToken, issued, err := s.tokens.Issue(TokenTypeRefresh, refreshClaims, s.refreshTokenTTL)
	if err != nil {
		return nil, err
	}
	if err := s.refreshStore.Set(ctx, issued.ID, account.ID, s.refreshTokenTTL); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    bearerTokenType,
		ExpiresIn:    int64(s.accessTokenTTL.Seconds()),
	}, nil
}

// identityConflict reports why an existing account blocks a registration. An
// account that started but never finished MFA setup gets its own reason so
// the caller can be told to log in and complete it.
func (s *AuthService) identityConflict(ctx context.Context, existing *model.Account, conflict *Error) error {
	factor, err := findMfaFactor(ctx, s.store, existing.ID)
	if err != nil {
		return s.failure("Failed to look up MFA factor", err)
	}
	if DeriveMfaState(existing, factor) == MfaStatePending {
		return ErrIncompleteMfaSetup
	}
	return conflict
}

func (s *AuthService) checkIdentityAvailable(ctx context.Context, username, email string) error {
	existing, err := s.store.FindAccountByUsername(ctx, username)
	if err == nil {
		return s.identityConflict(ctx, existing, ErrUsernameTaken)
	} else if !errors.Is(err, users.ErrAccountNotFound) {
		return s.failure("Failed to look up account", err)
	}

	existing, err = s.store.FindAccountByEmail(ctx, email)
	if err == nil {
		return s.identityConflict(ctx, existing, ErrEmailRegistered)
	} else if !errors.Is(err, users.ErrAccountNotFound) {
		return s.failure("Failed to look up account", err)
	}
	return nil
}

// Register creates an account without MFA.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*Profile, error) {
	if username == "" || email == "" || password == "" {
		return nil, ErrInvalidRequest
	}
	if err := s.checkIdentityAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.failure("Failed to hash password", err)
	}
	account := &model.Account{
		Username: username,
		Email:    email,
		Password: digest,
	}
	err = s.store.Transaction(ctx, func(tx users.CredentialStore) error {
		return tx.CreateAccount(ctx, account)
	})
	switch {
	case errors.Is(err, users.ErrUsernameTaken):
		return nil, ErrUsernameTaken
	case errors.Is(err, users.ErrEmailRegistered):
		return nil, ErrEmailRegistered
	case err != nil:
		return nil, s.failure("Failed to create account", err)
	}

	s.recordEvent(ctx, audit.EventRecord{AccountID: account.ID, Username: account.Username, EventType: audit.EventTypeAccountCreated})
	profile := newProfile(account)
	return &profile, nil
}

// Login verifies the password and, for accounts with active MFA, the TOTP
// code, then issues an access and refresh token pair.
func (s *AuthService) Login(ctx context.Context, username, password, mfaCode string) (*LoginResult, error) {
	account, err := s.store.FindAccountByUsername(ctx, username)
	if errors.Is(err, users.ErrAccountNotFound) {
		// keep the timing of unknown users close to a wrong password
		s.hasher.Verify(password, s.dummyDigest)
		s.recordLogin(ctx, audit.LoginRecord{Username: username, Method: audit.MethodPassword, Reason: ErrInvalidCredentials.Message})
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, s.failure("Failed to look up account", err)
	}

	if !s.hasher.Verify(password, account.Password) {
		s.recordLogin(ctx, audit.LoginRecord{AccountID: account.ID, Username: username, Method: audit.MethodPassword, Reason: ErrInvalidCredentials.Message})
		return nil, ErrInvalidCredentials
	}

	factor, err := findMfaFactor(ctx, s.store, account.ID)
	if err != nil {
		return nil, s.failure("Failed to look up MFA factor", err)
	}
	state := DeriveMfaState(account, factor)
	method := audit.MethodPassword
	if state == MfaStateActive {
		if mfaCode == "" {
			return nil, ErrMfaRequired
		}
		if !twofactor.ValidCodeFormat(mfaCode) {
			return nil, ErrInvalidMfaCodeShape
		}
		if err := s.verifyTOTP(factor, mfaCode); err != nil {
			if errors.Is(err, ErrInvalidMfaCode) {
				s.recordLogin(ctx, audit.LoginRecord{AccountID: account.ID, Username: username, Method: audit.MethodTOTP, Reason: ErrInvalidMfaCode.Message})
			}
			return nil, err
		}
		method = audit.MethodTOTP
	}

	pair, err := s.issueTokenPair(ctx, account)
	if err != nil {
		return nil, s.failure("Failed to issue tokens", err)
	}
	s.recordLogin(ctx, audit.LoginRecord{AccountID: account.ID, Username: username, Method: method, Success: true})
	return &LoginResult{
		TokenPair:     *pair,
		Profile:       newProfile(account),
		IncompleteMfa: state == MfaStatePending,
	}, nil
}

// Refresh redeems a refresh token for a new token pair. Each refresh token
// can be redeemed once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	accountID, _ := claims.AccountID()

	owner, err := s.refreshStore.Take(ctx, claims.ID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && owner != accountID) {
		return nil, ErrTokenRevoked
	} else if err != nil {
		return nil, s.failure("Failed to redeem refresh token", err)
	}

	account, err := s.store.FindAccountByID(ctx, accountID)
	if errors.Is(err, users.ErrAccountNotFound) {
		return nil, ErrInvalidToken
	} else if err != nil {
		return nil, s.failure("Failed to look up account", err)
	}

	pair, err := s.issueTokenPair(ctx, account)
	if err != nil {
		return nil, s.failure("Failed to issue tokens", err)
	}
	s.recordEvent(ctx, audit.EventRecord{AccountID: account.ID, Username: account.Username, EventType: audit.EventTypeTokenRefreshed})
	return pair, nil
}

// Logout revokes a refresh token. Revoking an already revoked token is not
// an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.Verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return err
	}
	err = s.refreshStore.Delete(ctx, claims.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return s.failure("Failed to revoke refresh token", err)
	}
	accountID, _ := claims.AccountID()
	s.recordEvent(ctx, audit.EventRecord{AccountID: accountID, EventType: audit.EventTypeLogout})
	return nil
}

// Authenticate resolves an access token to the principal it was issued to.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := s.tokens.Verify(accessToken, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	accountID, _ := claims.AccountID()
	return &Principal{
		AccountID:  accountID,
		Username:   claims.Username,
		MfaEnabled: *claims.MfaEnabled,
	}, nil
}

func (s *AuthService) GetProfile(ctx context.Context, principal *Principal) (*Profile, error) {
	account, err := s.store.FindAccountByID(ctx, principal.AccountID)
	if errors.Is(err, users.ErrAccountNotFound) {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, s.failure("Failed to look up account", err)
	}
	profile := newProfile(account)
	return &profile, nil
}

func (s *AuthService) GetMfaStatus(ctx context.Context, principal *Principal) (*MfaStatus, error) {
	account, err := s.store.FindAccountByID(ctx, principal.AccountID)
	if errors.Is(err, users.ErrAccountNotFound) {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, s.failure("Failed to look up account", err)
	}
	factor, err := findMfaFactor(ctx, s.store, account.ID)
	if err != nil {
		return nil, s.failure("Failed to look up MFA factor", err)
	}
	unused, err := s.store.CountUnusedBackupCodes(ctx, account.ID)
	if err != nil {
		return nil, s.failure("Failed to count backup codes", err)
	}
	return &MfaStatus{
		MfaEnabled:        account.MfaEnabled,
		MfaVerified:       factor != nil && factor.VerifiedAt != nil,
		State:             DeriveMfaState(account, factor),
		UnusedBackupCodes: unused,
	}, nil
}

// SetupMfa starts (or restarts) MFA enrollment. A pending factor and its
// backup codes are replaced; an active factor must be disabled or reset
// first. The returned secret and codes are never retrievable again.
func (s *AuthService) SetupMfa(ctx context.Context, principal *Principal) (*MfaSetupResult, error) {
	secret, err := s.totp.GenerateSecret()
	if err != nil {
		return nil, s.failure("Failed to generate TOTP secret", err)
	}
	encrypted, err := s.vault.Encrypt(secret)
	if err != nil {
		return nil, s.failure("Failed to encrypt TOTP secret", err)
	}
	codes, records, err := s.backupCodes.GenerateBatch(principal.AccountID)
	if err != nil {
		return nil, s.failure("Failed to generate backup codes", err)
	}

	var account *model.Account
	err = s.store.Transaction(ctx, func(tx users.CredentialStore) error {
		account, err = lockAccount(ctx, tx, principal.AccountID)
		if err != nil {
			return err
		}
		current, err := findMfaFactor(ctx, tx, account.ID)
		if err != nil {
			return err
		}
		if DeriveMfaState(account, current) == MfaStateActive {
			return ErrMfaAlreadyEnabled
		}
		factor := &model.MfaFactor{
			AccountID: account.ID,
			Secret:    encrypted,
			CreatedAt: s.now(),
		}
		if err := tx.UpsertMfaFactor(ctx, factor); err != nil {
			return err
		}
		if account.MfaEnabled {
			if err := tx.UpdateAccount(ctx, account.ID, map[string]interface{}{users.ColAccountMfaEnabled: false}); err != nil {
				return err
			}
			account.MfaEnabled = false
		}
		if err := tx.DeleteAllBackupCodes(ctx, account.ID); err != nil {
			return err
		}
		return tx.InsertBackupCodes(ctx, records)
	})
	if err != nil {
		return nil, s.failure("Failed to set up MFA", err)
	}

	s.recordEvent(ctx, audit.EventRecord{AccountID: account.ID, Username: account.Username, EventType: audit.EventTypeMfaSetup, Method: audit.MethodTOTP})
	return &MfaSetupResult{
		Secret:          secret,
		ProvisioningURI: s.totp.ProvisioningURI(secret, account.Username, s.issuerName),
		BackupCodes:     codes,
	}, nil
}

// VerifyMfa activates the pending factor once the caller proves possession
// of its secret. On an already active factor a correct code changes nothing.
func (s *AuthService) VerifyMfa(ctx context.Context, principal *Principal, code string) (*MfaStatus, error) {
	if !twofactor.ValidCodeFormat(code) {
		return nil, ErrInvalidMfaCodeShape
	}

	var (
		account   *model.Account
		activated bool
		unused    int64
	)
	err := s.store.Transaction(ctx, func(tx users.CredentialStore) error {
		var err error
		account, err = lockAccount(ctx, tx, principal.AccountID)
		if err != nil {
			return err
		}
		factor, err := findMfaFactor(ctx, tx, account.ID)
		if err != nil {
			return err
		}
		if factor == nil {
			return ErrSetupRequired
		}
		if err := s.verifyTOTP(factor, code); err != nil {
			return err
		}
		unused, err = tx.CountUnusedBackupCodes(ctx, account.ID)
		if err != nil {
			return err
		}
		if DeriveMfaState(account, factor) == MfaStateActive {
			return nil
		}

		if err := tx.UpdateMfaFactor(ctx, account.ID, map[string]interface{}{
			users.ColMfaFactorIsActive:   true,
			users.ColMfaFactorVerifiedAt: s.now(),
		}); err != nil {
			return err
		}
		if err := tx.UpdateAccount(ctx, account.ID, map[string]interface{}{users.ColAccountMfaEnabled: true}); err != nil {
			return err
		}
		account.MfaEnabled = true
		activated = true
		return nil
	})
	if err != nil {
		return nil, s.failure("Failed to verify MFA", err)
	}

	if activated {
		s.recordEvent(ctx, audit.EventRecord{AccountID: account.ID, Username: account.Username, EventType: audit.EventTypeMfaEnabled, Method: audit.MethodTOTP})
		s.notify("mfa_enabled", account, func(n Notifier) error { return n.SendMfaEnabled(account) })
	}
	return &MfaStatus{
		MfaEnabled:        true,
		MfaVerified:       true,
		State:             MfaStateActive,
		UnusedBackupCodes: unused,
	}, nil
}

// DisableMfa removes the active factor and all backup codes. Only a live
// TOTP code is accepted as proof of possession.
func (s *AuthService) DisableMfa(ctx context.Context, principal *Principal, code string) error {
	if !twofactor.ValidCodeFormat(code) {
		return ErrInvalidMfaCodeShape
	}

	var account *model.Account
	err := s.store.Transaction(ctx, func(tx users.CredentialStore) error {
		var err error
		account, err = lockAccount(ctx, tx, principal.AccountID)
		if err != nil {
			return err
		}
		factor, err := findMfaFactor(ctx, tx, account.ID)
		if err != nil {
			return err
		}
		if DeriveMfaState(account, factor) != MfaStateActive {
			return ErrMfaNotEnabled
		}
		if err := s.verifyTOTP(factor, code); err != nil {
			return err
		}
		return clearMfa(ctx, tx, account)
	})
	if err != nil {
		return s.failure("Failed to disable MFA", err)
	}

	s.recordEvent(ctx, audit.EventRecord{AccountID: account.ID, Username: account.Username, EventType: audit.EventTypeMfaDisabled, Method: audit.MethodTOTP})
	s.notify("mfa_disabled", account, func(n Notifier) error { return n.SendMfaDisabled(account) })
	return nil
}

// clearMfa returns a locked account to NO_MFA.
func clearMfa(ctx context.Context, tx users.CredentialStore, account *model.Account) error {
	if err := tx.DeleteMfaFactor(ctx, account.ID); err != nil {
		return err
	}
	if err := tx.DeleteAllBackupCodes(ctx, account.ID); err != nil {
		return err
	}
	if account.MfaEnabled {
		if err := tx.UpdateAccount(ctx, account.ID, map[string]interface{}{users.ColAccountMfaEnabled: false}); err != nil {
			return err
		}
		account.MfaEnabled = false
	}
	return nil
}

// VerifyBackupCode consumes one unused backup code of the account and
// returns a short-lived recovery token that only ResetMfa accepts.
func (s *AuthService) VerifyBackupCode(ctx context.Context, username, code string) (*RecoveryResult, error) {
	if !twofactor.ValidBackupCodeFormat(code) {
		return nil, ErrInvalidRequest
	}
	found, err := s.store.FindAccountByUsername(ctx, username)
	if errors.Is(err, users.ErrAccountNotFound) {
		s.recordLogin(ctx, audit.LoginRecord{Username: username, Method: audit.MethodBackupCode, Reason: ErrInvalidBackupCode.Message})
		return nil, ErrInvalidBackupCode
	} else if err != nil {
		return nil, s.failure("Failed to look up account", err)
	}

	var (
		account       *model.Account
		remaining     int64
		recoveryToken string
	)
	err = s.store.Transaction(ctx, func(tx users.CredentialStore) error {
		var err error
		account, err = lockAccount(ctx, tx, found.ID)
		if err != nil {
			return err
		}
		records, err := tx.FindUnusedBackupCodes(ctx, account.ID)
		if err != nil {
			return err
		}
		match := s.backupCodes.Consume(code, records)
		if match == nil {
			return ErrInvalidBackupCode
		}
		consumed, err := tx.MarkBackupCodeUsed(ctx, match.ID, s.now())
		if err != nil {
			return err
		}
		if !consumed {
			return ErrInvalidBackupCode
		}
		remaining = int64(len(records) - 1)

		claims := TokenClaims{Username: account.Username, Scope: params.RecoveryTokenScope}
		claims.Subject = cast.ToString(account.ID)
		token, issued, err := s.tokens.Issue(TokenTypeRecovery, claims, s.recoveryTokenTTL)
		if err != nil {
			return err
		}
		// registered before commit so a storage failure keeps the code unused
		if err := s.recoveryStore.Set(ctx, issued.ID, account.ID, s.recoveryTokenTTL); err != nil {
			return err
		}
		recoveryToken = token
		return nil
	})
	if errors.Is(err, ErrInvalidBackupCode) {
		s.recordLogin(ctx, audit.LoginRecord{AccountID: found.ID, Username: username, Method: audit.MethodBackupCode, Reason: ErrInvalidBackupCode.Message})
		return nil, ErrInvalidBackupCode
	} else if err != nil {
		return nil, s.failure("Failed to verify backup code", err)
	}

	s.recordEvent(ctx, audit.EventRecord{AccountID: account.ID, Username: account.Username, EventType: audit.EventTypeBackupCodeUsed, Method: audit.MethodBackupCode})
	s.notify("backup_code_used", account, func(n Notifier) error { return n.SendBackupCodeUsed(account, remaining) })
	return &RecoveryResult{
		RecoveryToken: recoveryToken,
		TokenType:     bearerTokenType,
		ExpiresIn:     int64(s.recoveryTokenTTL.Seconds()),
		Scope:         params.RecoveryTokenScope,
	}, nil
}

// ResetMfa redeems a recovery token and returns its account to NO_MFA.
// Access and refresh tokens are rejected, and each recovery token works once.
func (s *AuthService) ResetMfa(ctx context.Context, recoveryToken string) error {
	claims, err := s.tokens.Verify(recoveryToken, TokenTypeRecovery)
	if err != nil {
		return err
	}
	if claims.Scope != params.RecoveryTokenScope {
		return ErrInvalidToken
	}
	accountID, _ := claims.AccountID()

	owner, err := s.recoveryStore.Take(ctx, claims.ID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && owner != accountID) {
		return ErrTokenRevoked
	} else if err != nil {
		return s.failure("Failed to redeem recovery token", err)
	}

	var account *model.Account
	err = s.store.Transaction(ctx, func(tx users.CredentialStore) error {
		var err error
		account, err = lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		return clearMfa(ctx, tx, account)
	})
	if err != nil {
		return s.failure("Failed to reset MFA", err)
	}

	s.recordEvent(ctx, audit.EventRecord{AccountID: account.ID, Username: account.Username, EventType: audit.EventTypeMfaReset, Method: audit.MethodBackupCode})
	s.notify("mfa_reset", account, func(n Notifier) error { return n.SendMfaReset(account) })
	return nil
}

// DeleteAccount removes the account after re-checking its password. The
// factor and backup codes go with it.
func (s *AuthService) DeleteAccount(ctx context.Context, principal *Principal, password string) error {
	var account *model.Account
	err := s.store.Transaction(ctx, func(tx users.CredentialStore) error {
		var err error
		account, err = lockAccount(ctx, tx, principal.AccountID)
		if err != nil {
			return err
		}
		if !s.hasher.Verify(password, account.Password) {
			return ErrInvalidCredentials
		}
		if err := tx.DeleteMfaFactor(ctx, account.ID); err != nil {
			return err
		}
		if err := tx.DeleteAllBackupCodes(ctx, account.ID); err != nil {
			return err
		}
		return tx.DeleteAccount(ctx, account.ID)
	})
	if err != nil {
		return s.failure("Failed to delete account", err)
	}
	s.recordEvent(ctx, audit.EventRecord{AccountID: account.ID, Username: account.Username, EventType: audit.EventTypeAccountDeleted})
	return nil
}

func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IssuerName == "" {
		opts.IssuerName = params.DefaultIssuerName
	}
	if opts.AccessTokenTTL == 0 {
		opts.AccessTokenTTL = params.AccessTokenExpiration
	}
	if opts.RefreshTokenTTL == 0 {
		opts.RefreshTokenTTL = params.RefreshTokenExpiration
	}
	if opts.RecoveryTokenTTL == 0 {
		opts.RecoveryTokenTTL = params.RecoveryTokenExpiration
	}
	dummyDigest, err := opts.Hasher.Hash("kmfa-timing-equalizer")
	if err != nil {
		return nil, err
	}
	return &AuthService{
		store:            opts.Store,
		hasher:           opts.Hasher,
		vault:            opts.Vault,
		totp:             opts.TOTP,
		backupCodes:      opts.BackupCodes,
		tokens:           opts.Tokens,
		refreshStore:     store.New[uint](opts.Storage, params.RefreshTokenKeyPrefix),
		recoveryStore:    store.New[uint](opts.Storage, params.RecoveryTokenKeyPrefix),
		auditor:          opts.Auditor,
		notifier:         opts.Notifier,
		issuerName:       opts.IssuerName,
		accessTokenTTL:   opts.AccessTokenTTL,
		refreshTokenTTL:  opts.RefreshTokenTTL,
		recoveryTokenTTL: opts.RecoveryTokenTTL,
		now:              opts.Now,
		dummyDigest:      dummyDigest,
	}, nil
}
