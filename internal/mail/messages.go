package mail

import (
	"fmt"
	"time"

	"github.com/khanghh/kmfa/model"
)

const timeLayout = "Jan 2, 2006 15:04 MST"

// Notifier sends security notifications about changes to an account's second
// factor.
type Notifier struct {
	sender MailSender
	issuer string
}

func (n *Notifier) send(account *model.Account, subject, templateName string, vars map[string]any) error {
	vars["username"] = account.Username
	vars["issuer"] = n.issuer
	if _, ok := vars["time"]; !ok {
		vars["time"] = time.Now().UTC().Format(timeLayout)
	}
	body, err := renderText(templateName, vars)
	if err != nil {
		return err
	}
	return n.sender.Send(&Message{
		To:      []string{account.Email},
		Subject: subject,
		Body:    body,
	})
}

func (n *Notifier) SendMfaEnabled(account *model.Account) error {
	subject := fmt.Sprintf("[%s] Two-factor authentication enabled", n.issuer)
	return n.send(account, subject, "mfa-enabled", map[string]any{})
}

func (n *Notifier) SendMfaDisabled(account *model.Account) error {
	subject := fmt.Sprintf("[%s] Two-factor authentication disabled", n.issuer)
	return n.send(account, subject, "mfa-disabled", map[string]any{})
}

func (n *Notifier) SendBackupCodeUsed(account *model.Account, remaining int64) error {
	subject := fmt.Sprintf("[%s] A backup code was used", n.issuer)
	return n.send(account, subject, "backup-code-used", map[string]any{
		"remaining": remaining,
	})
}

func (n *Notifier) SendMfaReset(account *model.Account) error {
	subject := fmt.Sprintf("[%s] Two-factor authentication reset", n.issuer)
	return n.send(account, subject, "mfa-reset", map[string]any{})
}

func NewNotifier(sender MailSender, issuer string) *Notifier {
	if sender == nil {
		sender = NullMailSender{}
	}
	return &Notifier{
		sender: sender,
		issuer: issuer,
	}
}
