// Package mailer delivers messages over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"ski-forecast-mailer/config"
	"ski-forecast-mailer/models"
)

// SMTPTransport sends each message over a fresh SMTP session.
type SMTPTransport struct {
	client  *mail.Client
	timeout time.Duration
}

// NewSMTPTransport configures an authenticated SMTP client from cfg.
// SMTP_SECURE selects implicit TLS; otherwise STARTTLS is used when offered.
func NewSMTPTransport(cfg *config.Config) (*SMTPTransport, error) {
	host := cfg.SMTPHost()
	if host == "" {
		return nil, errors.New("smtp: no host configured")
	}
	port, secure := cfg.SMTPAddrPort()

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Email),
		mail.WithPassword(cfg.Password),
	}
	if cfg.SMTPTimeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.SMTPTimeout))
	}
	if secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp: create client for %s:%d: %w", host, port, err)
	}
	return &SMTPTransport{client: client, timeout: cfg.SMTPTimeout}, nil
}

// Send delivers msg as an HTML email.
func (t *SMTPTransport) Send(ctx context.Context, msg models.Message) error {
	m, err := BuildMessage(msg)
	if err != nil {
		return err
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	if err := t.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp: send %q: %w", msg.Subject, err)
	}
	return nil
}

// BuildMessage converts msg into a go-mail message with an HTML body.
func BuildMessage(msg models.Message) (*mail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, errors.New("smtp: message has no recipients")
	}

	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("smtp: invalid from address %q: %w", msg.From, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("smtp: invalid recipient list: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	return m, nil
}
