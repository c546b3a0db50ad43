package api

import (
	"net/mail"
	"regexp"
	"unicode"

	"github.com/khanghh/kmfa/internal/twofactor"
	"github.com/khanghh/kmfa/params"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 30
	maxEmailLength    = 254
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func invalidField(reason, message string) *APIErrorDetail {
	return &APIErrorDetail{Domain: "validation", Reason: reason, Message: message}
}

func validateUsername(username string) *APIErrorDetail {
	if username == "" {
		return invalidField("username_required", "Username is required.")
	}
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return invalidField("invalid_username", "Username must be between 3 and 30 characters.")
	}
	if !usernameRegex.MatchString(username) {
		return invalidField("invalid_username", "Username can only contain letters, numbers, and underscores.")
	}
	return nil
}

func validateEmail(email string) *APIErrorDetail {
	if email == "" {
		return invalidField("email_required", "Email is required.")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || len(email) > maxEmailLength {
		return invalidField("invalid_email", "Invalid email address.")
	}
	return nil
}

func validatePassword(password string) *APIErrorDetail {
	if len(password) < params.MinPasswordLength {
		return invalidField("weak_password", "Password must be at least 8 characters.")
	}
	if len(password) > params.MaxPasswordLength {
		return invalidField("invalid_password", "Password must be at most 72 bytes.")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return invalidField("weak_password", "Password must contain an uppercase letter, a lowercase letter and a digit.")
	}
	return nil
}

func validateMfaCode(code string) *APIErrorDetail {
	if !twofactor.ValidCodeFormat(code) {
		return invalidField("invalid_code_format", "Code must be exactly 6 digits.")
	}
	return nil
}

func validateBackupCode(code string) *APIErrorDetail {
	if !twofactor.ValidBackupCodeFormat(code) {
		return invalidField("invalid_backup_code_format", "Backup code must be 8 hexadecimal characters.")
	}
	return nil
}

// collect drops the nil results of the validators.
func collect(details ...*APIErrorDetail) []APIErrorDetail {
	var out []APIErrorDetail
	for _, d := range details {
		if d != nil {
			out = append(out, *d)
		}
	}
	return out
}
