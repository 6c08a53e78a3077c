// Package notification delivers transactional email over SMTP.
package notification

import (
	"context"
	"fmt"
	"time"

	"pronat/internal/config"
	appErrors "pronat/internal/errors"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer sends one HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// SMTPMailer sends mail through gomail. Each call dials a fresh connection.
type SMTPMailer struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
	timeout  time.Duration
	log      *zap.Logger
}

func NewSMTPMailer(cfg config.SMTPConfig, timeout time.Duration, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		fromName: cfg.FromName,
		timeout:  timeout,
		log:      log,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(m.from, m.fromName))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	// gomail has no context support; the send goroutine is abandoned on timeout.
	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			m.log.Warn("smtp delivery failed", zap.String("to", to), zap.Error(err))
			return appErrors.ErrDeliveryFailed.Wrap(err)
		}
		return nil
	case <-ctx.Done():
		m.log.Warn("smtp delivery timed out", zap.String("to", to), zap.Error(ctx.Err()))
		return appErrors.ErrDeliveryFailed.Wrap(ctx.Err())
	}
}

// LogMailer writes messages to the log instead of sending them. Used when no SMTP credentials are configured.
type LogMailer struct {
	Log *zap.Logger
}

func (m LogMailer) Send(_ context.Context, to, subject, _ string) error {
	m.Log.Info("mail not sent, smtp disabled", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// FormatCode renders a 6-digit code as XXX-XXX.
func FormatCode(code string) string {
	if len(code) != 6 {
		return code
	}
	return fmt.Sprintf("%s-%s", code[:3], code[3:])
}
