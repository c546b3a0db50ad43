package audit

import (
	"context"

	"github.com/khanghh/kmfa/model"
)

const (
	EventTypeLoginSuccess   = "login_success"
	EventTypeLoginFailure   = "login_failure"
	EventTypeAccountCreated = "account_created"
	EventTypeAccountDeleted = "account_deleted"
	EventTypeMfaSetup       = "mfa_setup"
	EventTypeMfaEnabled     = "mfa_enabled"
	EventTypeMfaDisabled    = "mfa_disabled"
	EventTypeMfaReset       = "mfa_reset"
	EventTypeBackupCodeUsed = "backup_code_used"
	EventTypeTokenRefreshed = "token_refreshed"
	EventTypeLogout         = "logout"
)

const (
	MethodPassword   = "password"
	MethodTOTP       = "totp"
	MethodBackupCode = "backup_code"
)

type clientInfoKey struct{}

type ClientInfo struct {
	IP        string
	UserAgent string
}

// WithClientInfo attaches the caller's network identity to ctx so that
// events recorded further down the call chain carry it.
func WithClientInfo(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, ClientInfo{IP: ip, UserAgent: userAgent})
}

func ClientInfoFrom(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}

type LoginRecord struct {
	AccountID uint
	Username  string
	Method    string
	Success   bool
	Reason    string
}

type EventRecord struct {
	AccountID uint
	Username  string
	EventType string
	Method    string
	Reason    string
}

type Recorder struct {
	repo AuditEventRepository
}

func (r *Recorder) RecordLogin(ctx context.Context, record LoginRecord) error {
	eventType := EventTypeLoginFailure
	if record.Success {
		eventType = EventTypeLoginSuccess
	}
	return r.RecordEvent(ctx, EventRecord{
		AccountID: record.AccountID,
		Username:  record.Username,
		EventType: eventType,
		Method:    record.Method,
		Reason:    record.Reason,
	})
}

func (r *Recorder) RecordEvent(ctx context.Context, record EventRecord) error {
	client := ClientInfoFrom(ctx)
	return r.repo.RecordEvent(ctx, &model.AuditEvent{
		AccountID: record.AccountID,
		Username:  record.Username,
		EventType: record.EventType,
		Method:    record.Method,
		Reason:    record.Reason,
		IP:        client.IP,
		UserAgent: client.UserAgent,
	})
}

func NewRecorder(repo AuditEventRepository) *Recorder {
	return &Recorder{repo: repo}
}
