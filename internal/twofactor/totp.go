package twofactor

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/khanghh/kmfa/params"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// TOTP computes and verifies RFC 6238 codes: HMAC-SHA1, 30 second steps,
// 6 digits.
type TOTP struct {
	opts totp.ValidateOpts
}

// ValidCodeFormat reports whether code is exactly six ASCII digits.
func ValidCodeFormat(code string) bool {
	if len(code) != params.TOTPDigits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

func (t *TOTP) GenerateSecret() (string, error) {
	buf := make([]byte, params.TOTPSecretSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return secretEncoding.EncodeToString(buf), nil
}

// ProvisioningURI builds the otpauth:// URI that authenticator apps import.
func (t *TOTP) ProvisioningURI(secret, accountName, issuer string) string {
	query := url.Values{}
	query.Set("secret", secret)
	query.Set("issuer", issuer)
	return fmt.Sprintf("otpauth://totp/%s:%s?%s", url.PathEscape(issuer), url.PathEscape(accountName), query.Encode())
}

// CodeAt returns the code for the step containing at.
func (t *TOTP) CodeAt(secret string, at time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, at, t.opts)
	if err != nil {
		return "", errors.Join(ErrInvalidSecret, err)
	}
	return code, nil
}

// Verify accepts candidate if it equals the code of any step within
// [-window, +window] around at. The candidate shape is checked before any
// HMAC is computed.
func (t *TOTP) Verify(secret, candidate string, at time.Time, window uint) (bool, error) {
	if !ValidCodeFormat(candidate) {
		return false, ErrInvalidCodeFormat
	}
	step := time.Duration(t.opts.Period) * time.Second
	matched := 0
	for i := -int(window); i <= int(window); i++ {
		code, err := t.CodeAt(secret, at.Add(time.Duration(i)*step))
		if err != nil {
			return false, err
		}
		matched |= subtle.ConstantTimeCompare([]byte(code), []byte(candidate))
	}
	return matched == 1, nil
}

func NewTOTP() *TOTP {
	return &TOTP{
		opts: totp.ValidateOpts{
			Period:    params.TOTPPeriod,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		},
	}
}
