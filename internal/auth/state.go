package auth

import "github.com/khanghh/kmfa/model"

type MfaState string

const (
	MfaStateNone    MfaState = "NO_MFA"
	MfaStatePending MfaState = "MFA_PENDING"
	MfaStateActive  MfaState = "MFA_ACTIVE"
)

// DeriveMfaState maps the persisted flags of an account to its MFA state.
// factor is nil when the account has no MFA factor row.
func DeriveMfaState(account *model.Account, factor *model.MfaFactor) MfaState {
	if factor == nil {
		return MfaStateNone
	}
	if factor.IsActive && account.MfaEnabled {
		return MfaStateActive
	}
	return MfaStatePending
}
