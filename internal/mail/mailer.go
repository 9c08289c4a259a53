package mail

import (
	"fmt"
	"net/smtp"

	"github.com/mjajones/notifiq-app/internal/config"
)

// Mailer is the outbound-email collaborator. Implementations must be safe
// for concurrent use.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTP(cfg config.SMTPConfig) *SMTPMailer { return &SMTPMailer{cfg: cfg} }

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	addr := m.cfg.Host + ":" + m.cfg.Port

	msg := "From: " + m.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		htmlBody

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// Noop discards mail; used in dev when no relay is configured and in tests.
type Noop struct{}

func (Noop) Send(string, string, string) error { return nil }

// VerificationEmail renders the account activation message.
func VerificationEmail(name, verificationURL string) (subject, body string) {
	subject = "Activate your NotifiQ account."
	body = fmt.Sprintf(
		`<p>Hi %s,</p>`+
			`<p>Please click the link below to verify your email address and activate your account:</p>`+
			`<p><a href="%s">Verify email</a></p>`+
			`<p>If you did not sign up, you can ignore this message.</p>`,
		name, verificationURL,
	)
	return subject, body
}
