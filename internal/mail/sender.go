package mail

import "log/slog"

type Message struct {
	From        string
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	Body        string
	IsHTML      bool
	Embeds      map[string]string
	Attachments []string
}

type MailSender interface {
	Send(message *Message) error
}

// NullMailSender drops every message. It is used when no mail backend is
// configured.
type NullMailSender struct{}

func (NullMailSender) Send(message *Message) error {
	slog.Debug("mail backend disabled, message dropped", "subject", message.Subject)
	return nil
}
