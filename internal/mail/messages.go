package mail

import (
	"fmt"
	"time"

	"github.com/khanghh/alumnet/internal/render"
)

// Mailer renders and sends the notifications users receive about moderation
// decisions on their account.
type Mailer struct {
	sender   MailSender
	renderer *render.Renderer
	siteName string
}

func (m *Mailer) send(toEmail, subject, tmpl string, params map[string]interface{}) error {
	body, err := m.renderer.RenderHTML(tmpl, params)
	if err != nil {
		return err
	}
	return m.sender.Send(&Message{
		To:      []string{toEmail},
		Subject: subject,
		Body:    body,
		IsHTML:  true,
	})
}

func (m *Mailer) SendVerificationApproved(toEmail, name, notes string) error {
	params := map[string]interface{}{
		"name":  name,
		"notes": notes,
	}
	return m.send(toEmail, fmt.Sprintf("Your %s alumni verification was approved", m.siteName), "mail/verification-approved", params)
}

func (m *Mailer) SendVerificationRejected(toEmail, name, reason string) error {
	params := map[string]interface{}{
		"name":   name,
		"reason": reason,
	}
	return m.send(toEmail, fmt.Sprintf("Your %s alumni verification was not approved", m.siteName), "mail/verification-rejected", params)
}

func (m *Mailer) SendBanNotice(toEmail, name, reason string, expiresAt *time.Time) error {
	params := map[string]interface{}{
		"name":   name,
		"reason": reason,
	}
	if expiresAt != nil {
		params["expiresAt"] = expiresAt.UTC().Format(time.RFC1123)
	}
	return m.send(toEmail, fmt.Sprintf("Your %s account has been suspended", m.siteName), "mail/ban-notice", params)
}

func NewMailer(sender MailSender, renderer *render.Renderer, siteName string) *Mailer {
	return &Mailer{
		sender:   sender,
		renderer: renderer,
		siteName: siteName,
	}
}
