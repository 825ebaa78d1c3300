package infra

import (
	"fmt"
	"net/smtp"

	"github.com/pirela/sistema-guia/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for the novedad alert emails sent to
// administrators when a guide reports an issue.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// SendAlerta sends a plain-text alert to the given recipients.
func (m *Mailer) SendAlerta(to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	e := email.NewEmail()
	e.From = m.user
	e.To = to
	e.Subject = subject
	e.Text = []byte(body)

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(m.addr, auth)
}
