// Package mailer sends password-reset and account-activation email. No
// SMTP client library appeared anywhere in the example pack, so this is
// built directly on the standard library's net/smtp.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/schoolflow/schoolflow-backend/pkg/config"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
)

// Mailer sends plain-text notification email over SMTP. A zero-value Host
// disables sending: Send logs the message instead of dialing out, which
// keeps local development and tests from needing a real mail server.
type Mailer struct {
	cfg    *config.SMTPConfig
	logger *logger.Logger
}

// New creates a Mailer from cfg.
func New(cfg *config.SMTPConfig, log *logger.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: log}
}

// Send delivers a plain-text message to a single recipient.
func (m *Mailer) Send(to, subject, body string) error {
	if m.cfg.Host == "" {
		m.logger.Info().Str("to", to).Str("subject", subject).Msg("smtp disabled, logging email instead of sending")
		return nil
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	msg := buildMessage(m.cfg.From, to, subject, body)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg)
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// PasswordResetBody renders the body of a password-reset email.
func PasswordResetBody(resetLink string) string {
	return "A password reset was requested for your account.\n\n" +
		"Use the link below within the next hour to choose a new password:\n" +
		resetLink + "\n\n" +
		"If you did not request this, you can safely ignore this email."
}

// ActivationBody renders the body of an account-activation email.
func ActivationBody(activationLink string) string {
	return "Welcome. Use the link below to activate your account:\n\n" +
		activationLink
}
