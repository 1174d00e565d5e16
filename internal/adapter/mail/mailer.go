// Package mail sends operator notification emails over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/mkarls/aqi-ops/internal/config"
)

// Mailer sends plain-text notifications to the configured recipients.
// It implements the Notifier interface the commands use.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
	logger   *slog.Logger
}

// New creates a Mailer from the SMTP configuration.
func New(cfg *config.Config, logger *slog.Logger) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.MailFrom,
		to:       cfg.MailTo,
		logger:   logger,
	}
}

// Notify sends one plain-text message. A new SMTP connection is dialed per
// call; notifications are rare enough that pooling isn't worth it.
func (m *Mailer) Notify(ctx context.Context, subject, body string) error {
	msg, err := m.buildMessage(subject, body)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(m.port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if m.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.username),
			gomail.WithPassword(m.password),
		)
	}

	client, err := gomail.NewClient(m.host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	m.logger.Info("notification sent", "subject", subject, "recipients", len(m.to))
	return nil
}

func (m *Mailer) buildMessage(subject, body string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.from, err)
	}
	if err := msg.To(m.to...); err != nil {
		return nil, fmt.Errorf("invalid recipients %v: %w", m.to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)
	return msg, nil
}
