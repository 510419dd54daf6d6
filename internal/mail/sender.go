package mail

import (
	"log/slog"
	"strings"
)

type Message struct {
	From        string
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	Body        string
	IsHTML      bool
	Attachments []string
}

type MailSender interface {
	Send(message *Message) error
}

// LogMailSender writes messages to the log instead of delivering them.
type LogMailSender struct {
	From string
}

func (s *LogMailSender) Send(message *Message) error {
	slog.Info("Outgoing mail",
		"from", s.From,
		"to", strings.Join(message.To, ","),
		"subject", message.Subject,
		"bytes", len(message.Body),
	)
	return nil
}
