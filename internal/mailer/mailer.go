// Package mailer delivers contact-form submissions over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/wneessen/go-mail"
)

// ErrNotConfigured is returned when SMTP credentials are absent. The check
// happens before any network I/O.
var ErrNotConfigured = errors.New("email service not configured")

// Submission is one contact-form entry.
type Submission struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Config holds the SMTP endpoint and credentials.
type Config struct {
	Server    string
	Port      int
	Username  string
	Password  string
	Recipient string
}

// Mailer sends contact-form email. The zero credentials case is detected up
// front so the HTTP layer can answer 503 without touching the network.
type Mailer struct {
	cfg Config
	now func() time.Time
}

// New creates a Mailer. now is used for the submission timestamp and may be
// nil for the wall clock.
func New(cfg Config, now func() time.Time) *Mailer {
	if now == nil {
		now = time.Now
	}
	return &Mailer{cfg: cfg, now: now}
}

// Configured reports whether credentials are present.
func (m *Mailer) Configured() bool {
	return m.cfg.Username != "" && m.cfg.Password != ""
}

// Send delivers one submission to the configured recipient with the
// submitter as Reply-To. Returns ErrNotConfigured without any network call
// when credentials are missing.
func (m *Mailer) Send(ctx context.Context, sub Submission) error {
	if !m.Configured() {
		return ErrNotConfigured
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(sub.Name, m.cfg.Username); err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(m.cfg.Recipient); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	if err := msg.ReplyTo(sub.Email); err != nil {
		return fmt.Errorf("invalid reply address: %w", err)
	}
	msg.Subject("New Contact Form Submission — VideoSnatcherz")

	stamp := m.now().Format("January 2, 2006 at 3:04 PM")
	msg.SetBodyString(mail.TypeTextPlain, textBody(sub, stamp))
	msg.AddAlternativeString(mail.TypeTextHTML, htmlBody(sub, stamp))

	client, err := mail.NewClient(m.cfg.Server,
		mail.WithPort(m.cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

func textBody(sub Submission, stamp string) string {
	return fmt.Sprintf(`New Contact Form Submission — VideoSnatcherz

Submitted: %s

Name: %s
Email: %s

Subject:
%s

Message:
%s

---
Reply directly to %s to respond.
`, stamp, sub.Name, sub.Email, sub.Subject, sub.Message, sub.Email)
}

func htmlBody(sub Submission, stamp string) string {
	return fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>New Contact Form Submission — VideoSnatcherz</h2>
  <p><strong>Submitted:</strong> %s</p>
  <table>
    <tr><td><strong>Name:</strong></td><td>%s</td></tr>
    <tr><td><strong>Email:</strong></td><td><a href="mailto:%s">%s</a></td></tr>
  </table>
  <h3>Subject</h3>
  <p>%s</p>
  <h3>Message</h3>
  <div style="background: #f1f5f9; padding: 15px; white-space: pre-wrap;">%s</div>
</body>
</html>`,
		stamp,
		html.EscapeString(sub.Name),
		html.EscapeString(sub.Email), html.EscapeString(sub.Email),
		html.EscapeString(sub.Subject),
		html.EscapeString(sub.Message))
}
