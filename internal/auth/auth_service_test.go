package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/khanghh/kmfa/internal/audit"
	"github.com/khanghh/kmfa/internal/store"
	"github.com/khanghh/kmfa/internal/twofactor"
	"github.com/khanghh/kmfa/internal/users"
	"github.com/khanghh/kmfa/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSigningKey    = "test-signing-key-0123456789abcdef"
	testEncryptionKey = "test-encryption-key-0123456789abc"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type captureAuditor struct {
	mu     sync.Mutex
	events []audit.EventRecord
	logins []audit.LoginRecord
}

func (a *captureAuditor) RecordLogin(ctx context.Context, record audit.LoginRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logins = append(a.logins, record)
	return nil
}

func (a *captureAuditor) RecordEvent(ctx context.Context, record audit.EventRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, record)
	return nil
}

func (a *captureAuditor) count(eventType string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, e := range a.events {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *captureNotifier) add(kind string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, kind)
	return nil
}

func (n *captureNotifier) SendMfaEnabled(*model.Account) error  { return n.add("enabled") }
func (n *captureNotifier) SendMfaDisabled(*model.Account) error { return n.add("disabled") }
func (n *captureNotifier) SendMfaReset(*model.Account) error    { return n.add("reset") }
func (n *captureNotifier) SendBackupCodeUsed(*model.Account, int64) error {
	return n.add("backup_code_used")
}

type testEnv struct {
	svc      *AuthService
	store    *memoryStore
	clock    *testClock
	totp     *twofactor.TOTP
	vault    *twofactor.Vault
	auditor  *captureAuditor
	notifier *captureNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := &testClock{now: time.Unix(1700000000, 0)}
	hasher := users.NewPasswordHasher(bcrypt.MinCost)
	vault, err := twofactor.NewVault(testEncryptionKey)
	require.NoError(t, err)
	backupCodes, err := twofactor.NewBackupCodeManager(users.NewPasswordHasher(bcrypt.MinCost), 0)
	require.NoError(t, err)
	tokens, err := NewTokenIssuer(testSigningKey, "kmfa-test", clock.Now)
	require.NoError(t, err)
	storage := store.NewMemoryStorage(time.Minute)
	t.Cleanup(func() { storage.Close() })

	env := &testEnv{
		store:    newMemoryStore(),
		clock:    clock,
		totp:     twofactor.NewTOTP(),
		vault:    vault,
		auditor:  &captureAuditor{},
		notifier: &captureNotifier{},
	}
	env.svc, err = NewAuthService(AuthServiceOptions{
		Store:       env.store,
		Hasher:      hasher,
		Vault:       vault,
		TOTP:        env.totp,
		BackupCodes: backupCodes,
		Tokens:      tokens,
		Storage:     storage,
		Auditor:     env.auditor,
		Notifier:    env.notifier,
		IssuerName:  "kmfa",
		Now:         clock.Now,
	})
	require.NoError(t, err)
	return env
}

func (e *testEnv) code(t *testing.T, secret string) string {
	t.Helper()
	code, err := e.totp.CodeAt(secret, e.clock.Now())
	require.NoError(t, err)
	return code
}

func (e *testEnv) register(t *testing.T, username string) *Principal {
	t.Helper()
	profile, err := e.svc.Register(context.Background(), username, username+"@x.com", "Passw0rd1")
	require.NoError(t, err)
	return &Principal{AccountID: profile.ID, Username: profile.Username}
}

// enableMfa runs setup and verification and returns the plaintext secret
// and backup codes.
func (e *testEnv) enableMfa(t *testing.T, principal *Principal) *MfaSetupResult {
	t.Helper()
	setup, err := e.svc.SetupMfa(context.Background(), principal)
	require.NoError(t, err)
	_, err = e.svc.VerifyMfa(context.Background(), principal, e.code(t, setup.Secret))
	require.NoError(t, err)
	return setup
}

// wrongCode returns a well-formed code that is not valid for secret around
// the current time.
func (e *testEnv) wrongCode(t *testing.T, secret string) string {
	t.Helper()
	for _, candidate := range []string{"000000", "111111", "222222", "333333"} {
		ok, err := e.totp.Verify(secret, candidate, e.clock.Now(), 1)
		require.NoError(t, err)
		if !ok {
			return candidate
		}
	}
	t.Fatal("no invalid code found")
	return ""
}

func TestAuthService_Scenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	profile, err := env.svc.Register(ctx, "alice", "a@x.com", "Passw0rd1")
	require.NoError(t, err)
	assert.False(t, profile.MfaEnabled)
	assert.Equal(t, "alice", profile.Username)

	login, err := env.svc.Login(ctx, "alice", "Passw0rd1", "")
	require.NoError(t, err)
	assert.NotEmpty(t, login.AccessToken)
	assert.NotEmpty(t, login.RefreshToken)
	assert.False(t, login.IncompleteMfa)

	principal, err := env.svc.Authenticate(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, principal.AccountID)

	setup, err := env.svc.SetupMfa(ctx, principal)
	require.NoError(t, err)
	assert.Len(t, setup.BackupCodes, 8)
	assert.Contains(t, setup.ProvisioningURI, "otpauth://totp/kmfa:alice?")

	// not active yet, the password is enough
	login, err = env.svc.Login(ctx, "alice", "Passw0rd1", "")
	require.NoError(t, err)
	assert.True(t, login.IncompleteMfa)

	status, err := env.svc.VerifyMfa(ctx, principal, env.code(t, setup.Secret))
	require.NoError(t, err)
	assert.True(t, status.MfaEnabled)
	assert.Equal(t, int64(8), status.UnusedBackupCodes)

	_, err = env.svc.Login(ctx, "alice", "Passw0rd1", "")
	assert.ErrorIs(t, err, ErrMfaRequired)
	assert.Equal(t, KindMfaRequired, KindOf(err))

	login, err = env.svc.Login(ctx, "alice", "Passw0rd1", env.code(t, setup.Secret))
	require.NoError(t, err)
	assert.False(t, login.IncompleteMfa)
	assert.True(t, login.Profile.MfaEnabled)

	assert.Equal(t, []string{"enabled"}, env.notifier.sent)
	assert.Equal(t, 1, env.auditor.count(audit.EventTypeMfaEnabled))
}

func TestAuthService_SetupVerifyInvariant(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")
	env.enableMfa(t, principal)

	account, err := env.store.FindAccountByID(ctx, principal.AccountID)
	require.NoError(t, err)
	assert.True(t, account.MfaEnabled)
	factor, err := env.store.FindMfaFactor(ctx, principal.AccountID)
	require.NoError(t, err)
	assert.True(t, factor.IsActive)
	assert.NotNil(t, factor.VerifiedAt)
	unused, err := env.store.CountUnusedBackupCodes(ctx, principal.AccountID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), unused)
}

func TestAuthService_SecretEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")

	setup, err := env.svc.SetupMfa(ctx, principal)
	require.NoError(t, err)
	factor, err := env.store.FindMfaFactor(ctx, principal.AccountID)
	require.NoError(t, err)
	assert.NotEqual(t, setup.Secret, factor.Secret)
	plaintext, err := env.vault.Decrypt(factor.Secret)
	require.NoError(t, err)
	assert.Equal(t, setup.Secret, plaintext)

	codes, err := env.store.FindUnusedBackupCodes(ctx, principal.AccountID)
	require.NoError(t, err)
	for _, record := range codes {
		assert.NotContains(t, setup.BackupCodes, record.CodeHash)
	}
}

func TestAuthService_RegisterConflicts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "alice")

	_, err := env.svc.Register(ctx, "alice", "other@x.com", "Passw0rd1")
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = env.svc.Register(ctx, "alice2", "alice@x.com", "Passw0rd1")
	assert.ErrorIs(t, err, ErrEmailRegistered)

	_, err = env.svc.Register(ctx, "", "x@x.com", "Passw0rd1")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestAuthService_RegisterIncompleteSetup(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "bob")
	_, err := env.svc.SetupMfa(ctx, principal)
	require.NoError(t, err)

	_, err = env.svc.Register(ctx, "bob", "new@x.com", "Passw0rd1")
	assert.ErrorIs(t, err, ErrIncompleteMfaSetup)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = env.svc.Register(ctx, "bobby", "bob@x.com", "Passw0rd1")
	assert.ErrorIs(t, err, ErrIncompleteMfaSetup)
}

func TestAuthService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")

	_, err := env.svc.Login(ctx, "alice", "wrong", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.svc.Login(ctx, "nobody", "Passw0rd1", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, KindUnauthenticated, KindOf(err))

	setup := env.enableMfa(t, principal)
	_, err = env.svc.Login(ctx, "alice", "Passw0rd1", env.wrongCode(t, setup.Secret))
	assert.ErrorIs(t, err, ErrInvalidMfaCode)
	_, err = env.svc.Login(ctx, "alice", "Passw0rd1", "12ab")
	assert.ErrorIs(t, err, ErrInvalidMfaCodeShape)
	assert.Equal(t, KindValidation, KindOf(err))

	// a wrong password never reveals that MFA is required
	_, err = env.svc.Login(ctx, "alice", "wrong", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_LoginClockDrift(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")
	setup := env.enableMfa(t, principal)

	code := env.code(t, setup.Secret)
	env.clock.Advance(29 * time.Second)
	_, err := env.svc.Login(ctx, "alice", "Passw0rd1", code)
	require.NoError(t, err)

	env.clock.Advance(61 * time.Second)
	_, err = env.svc.Login(ctx, "alice", "Passw0rd1", code)
	assert.ErrorIs(t, err, ErrInvalidMfaCode)
}

func TestAuthService_VerifyMfaFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")

	_, err := env.svc.VerifyMfa(ctx, principal, "123456")
	assert.ErrorIs(t, err, ErrSetupRequired)
	assert.Equal(t, KindSetupRequired, KindOf(err))

	setup, err := env.svc.SetupMfa(ctx, principal)
	require.NoError(t, err)

	_, err = env.svc.VerifyMfa(ctx, principal, "1234")
	assert.ErrorIs(t, err, ErrInvalidMfaCodeShape)

	_, err = env.svc.VerifyMfa(ctx, principal, env.wrongCode(t, setup.Secret))
	assert.ErrorIs(t, err, ErrInvalidMfaCode)

	factor, err := env.store.FindMfaFactor(ctx, principal.AccountID)
	require.NoError(t, err)
	assert.False(t, factor.IsActive)
	account, err := env.store.FindAccountByID(ctx, principal.AccountID)
	require.NoError(t, err)
	assert.False(t, account.MfaEnabled)
}

func TestAuthService_VerifyMfaAlreadyActive(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")
	setup := env.enableMfa(t, principal)

	before, err := env.store.FindMfaFactor(ctx, principal.AccountID)
	require.NoError(t, err)

	env.clock.Advance(5 * time.Minute)
	status, err := env.svc.VerifyMfa(ctx, principal, env.code(t, setup.Secret))
	require.NoError(t, err)
	assert.Equal(t, MfaStateActive, status.State)

	after, err := env.store.FindMfaFactor(ctx, principal.AccountID)
	require.NoError(t, err)
	assert.Equal(t, before.VerifiedAt, after.VerifiedAt)
	assert.Equal(t, 1, env.auditor.count(audit.EventTypeMfaEnabled))
}

func TestAuthService_VerifyMfaRollback(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")
	setup, err := env.svc.SetupMfa(ctx, principal)
	require.NoError(t, err)

	env.store.failUpdateAccount = errors.New("connection reset")
	_, err = env.svc.VerifyMfa(ctx, principal, env.code(t, setup.Secret))
	assert.ErrorIs(t, err, ErrInternal)

	factor, err := env.store.FindMfaFactor(ctx, principal.AccountID)
	require.NoError(t, err)
	assert.False(t, factor.IsActive)
	assert.Nil(t, factor.VerifiedAt)
}

func TestAuthService_VerifyMfaConcurrent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")
	setup, err := env.svc.SetupMfa(ctx, principal)
	require.NoError(t, err)
	code := env.code(t, setup.Secret)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.VerifyMfa(ctx, principal, code)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, env.auditor.count(audit.EventTypeMfaEnabled))
}

func TestAuthService_ResetupInvalidatesPrevious(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")

	first, err := env.svc.SetupMfa(ctx, principal)
	require.NoError(t, err)
	second, err := env.svc.SetupMfa(ctx, principal)
	require.NoError(t, err)
	assert.NotEqual(t, first.Secret, second.Secret)

	status, err := env.svc.GetMfaStatus(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, MfaStatePending, status.State)
	assert.False(t, status.MfaEnabled)
	assert.Equal(t, int64(8), status.UnusedBackupCodes)

	if staleCode := env.code(t, first.Secret); staleCode != env.code(t, second.Secret) {
		_, err = env.svc.VerifyMfa(ctx, principal, staleCode)
		assert.ErrorIs(t, err, ErrInvalidMfaCode)
	}
	_, err = env.svc.VerifyMfa(ctx, principal, env.code(t, second.Secret))
	require.NoError(t, err)

	_, err = env.svc.VerifyBackupCode(ctx, "alice", first.BackupCodes[0])
	assert.ErrorIs(t, err, ErrInvalidBackupCode)
}

func TestAuthService_SetupRejectedWhileActive(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")
	setup := env.enableMfa(t, principal)

	_, err := env.svc.SetupMfa(ctx, principal)
	assert.ErrorIs(t, err, ErrMfaAlreadyEnabled)
	assert.Equal(t, KindConflict, KindOf(err))

	status, err := env.svc.GetMfaStatus(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, MfaStateActive, status.State)
	assert.True(t, status.MfaEnabled)
	assert.Equal(t, int64(8), status.UnusedBackupCodes)

	_, err = env.svc.Login(ctx, "alice", "Passw0rd1", "")
	assert.ErrorIs(t, err, ErrMfaRequired)
	_, err = env.svc.Login(ctx, "alice", "Passw0rd1", env.code(t, setup.Secret))
	require.NoError(t, err)

	// setup is allowed again once MFA has been disabled
	require.NoError(t, env.svc.DisableMfa(ctx, principal, env.code(t, setup.Secret)))
	_, err = env.svc.SetupMfa(ctx, principal)
	require.NoError(t, err)
}

func TestAuthService_DisableMfa(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")

	err := env.svc.DisableMfa(ctx, principal, "123456")
	assert.ErrorIs(t, err, ErrMfaNotEnabled)
	assert.Equal(t, KindNotEnabled, KindOf(err))

	setup := env.enableMfa(t, principal)

	err = env.svc.DisableMfa(ctx, principal, setup.BackupCodes[0])
	assert.ErrorIs(t, err, ErrInvalidMfaCodeShape)
	err = env.svc.DisableMfa(ctx, principal, env.wrongCode(t, setup.Secret))
	assert.ErrorIs(t, err, ErrInvalidMfaCode)

	require.NoError(t, env.svc.DisableMfa(ctx, principal, env.code(t, setup.Secret)))

	_, err = env.store.FindMfaFactor(ctx, principal.AccountID)
	assert.ErrorIs(t, err, users.ErrMfaFactorNotFound)
	account, err := env.store.FindAccountByID(ctx, principal.AccountID)
	require.NoError(t, err)
	assert.False(t, account.MfaEnabled)
	unused, err := env.store.CountUnusedBackupCodes(ctx, principal.AccountID)
	require.NoError(t, err)
	assert.Zero(t, unused)

	_, err = env.svc.Login(ctx, "alice", "Passw0rd1", "")
	require.NoError(t, err)
}

func TestAuthService_DisablePendingMfa(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")
	setup, err := env.svc.SetupMfa(ctx, principal)
	require.NoError(t, err)

	err = env.svc.DisableMfa(ctx, principal, env.code(t, setup.Secret))
	assert.ErrorIs(t, err, ErrMfaNotEnabled)
}

func TestAuthService_BackupCodeRecovery(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")
	setup := env.enableMfa(t, principal)

	recovery, err := env.svc.VerifyBackupCode(ctx, "alice", setup.BackupCodes[2])
	require.NoError(t, err)
	assert.Equal(t, "mfa:reset", recovery.Scope)
	assert.Equal(t, int64(600), recovery.ExpiresIn)

	// each code consumes once
	_, err = env.svc.VerifyBackupCode(ctx, "alice", setup.BackupCodes[2])
	assert.ErrorIs(t, err, ErrInvalidBackupCode)
	assert.Equal(t, KindInvalidMfaCode, KindOf(err))

	// the recovery token is not an access token
	_, err = env.svc.Authenticate(ctx, recovery.RecoveryToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, env.svc.ResetMfa(ctx, recovery.RecoveryToken))
	status, err := env.svc.GetMfaStatus(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, MfaStateNone, status.State)
	assert.Zero(t, status.UnusedBackupCodes)

	// single use
	err = env.svc.ResetMfa(ctx, recovery.RecoveryToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	assert.Equal(t, []string{"enabled", "backup_code_used", "reset"}, env.notifier.sent)

	_, err = env.svc.Login(ctx, "alice", "Passw0rd1", "")
	require.NoError(t, err)
}

func TestAuthService_BackupCodeFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")
	setup := env.enableMfa(t, principal)

	_, err := env.svc.VerifyBackupCode(ctx, "nobody", setup.BackupCodes[0])
	assert.ErrorIs(t, err, ErrInvalidBackupCode)
	_, err = env.svc.VerifyBackupCode(ctx, "alice", "ABCDEF01")
	assert.ErrorIs(t, err, ErrInvalidBackupCode)
	_, err = env.svc.VerifyBackupCode(ctx, "alice", "xyz")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// lowercase input still matches
	_, err = env.svc.VerifyBackupCode(ctx, "alice", " "+strings.ToLower(setup.BackupCodes[1]))
	require.NoError(t, err)
}

func TestAuthService_ResetRejectsOtherTokens(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")
	env.enableMfa(t, principal)

	login, err := env.svc.Login(ctx, "alice", "Passw0rd1", env.code(t, mustSecret(t, env, principal)))
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.ResetMfa(ctx, login.AccessToken), ErrInvalidToken)
	assert.ErrorIs(t, env.svc.ResetMfa(ctx, login.RefreshToken), ErrInvalidToken)

	status, err := env.svc.GetMfaStatus(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, MfaStateActive, status.State)
}

func TestAuthService_RecoveryTokenExpires(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")
	setup := env.enableMfa(t, principal)

	recovery, err := env.svc.VerifyBackupCode(ctx, "alice", setup.BackupCodes[0])
	require.NoError(t, err)

	env.clock.Advance(11 * time.Minute)
	err = env.svc.ResetMfa(ctx, recovery.RecoveryToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAuthService_RefreshRotation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "alice")

	login, err := env.svc.Login(ctx, "alice", "Passw0rd1", "")
	require.NoError(t, err)

	pair, err := env.svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, pair.RefreshToken)

	_, err = env.svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = env.svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, env.svc.Logout(ctx, pair.RefreshToken))
	_, err = env.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	require.NoError(t, env.svc.Logout(ctx, pair.RefreshToken))
}

func TestAuthService_RefreshReflectsAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")

	login, err := env.svc.Login(ctx, "alice", "Passw0rd1", "")
	require.NoError(t, err)
	env.enableMfa(t, principal)

	pair, err := env.svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	refreshed, err := env.svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, refreshed.MfaEnabled)
}

func TestAuthService_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")
	env.enableMfa(t, principal)

	err := env.svc.DeleteAccount(ctx, principal, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, env.svc.DeleteAccount(ctx, principal, "Passw0rd1"))
	_, err = env.svc.GetProfile(ctx, principal)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = env.store.FindMfaFactor(ctx, principal.AccountID)
	assert.ErrorIs(t, err, users.ErrMfaFactorNotFound)

	// the identity is free again
	_, err = env.svc.Register(ctx, "alice", "alice@x.com", "Passw0rd1")
	require.NoError(t, err)
}

func TestAuthService_DecryptionFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	principal := env.register(t, "alice")
	setup, err := env.svc.SetupMfa(ctx, principal)
	require.NoError(t, err)

	other, err := twofactor.NewVault("another-encryption-key-0123456789")
	require.NoError(t, err)
	env.svc.vault = other

	_, err = env.svc.VerifyMfa(ctx, principal, env.code(t, setup.Secret))
	assert.ErrorIs(t, err, ErrDecryptionFailure)
	assert.Equal(t, KindInternal, KindOf(err))
}

func mustSecret(t *testing.T, env *testEnv, principal *Principal) string {
	t.Helper()
	factor, err := env.store.FindMfaFactor(context.Background(), principal.AccountID)
	require.NoError(t, err)
	secret, err := env.vault.Decrypt(factor.Secret)
	require.NoError(t, err)
	return secret
}
