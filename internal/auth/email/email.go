// Package email delivers 2FA challenge codes.
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-mail/mail"
)

const subject = "Your sign-in code"

func body(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your verification code is %s.\n\nIt expires in %d minutes.\nIf you did not try to sign in, ignore this message.\n",
		code, int(ttl.Minutes()))
}

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// SSL selects implicit TLS; otherwise STARTTLS is negotiated when offered.
	SSL bool
}

// SMTPSender sends codes through an SMTP relay, one connection per message.
type SMTPSender struct {
	cfg    SMTPConfig
	ttl    time.Duration
	dialer *mail.Dialer
}

func NewSMTPSender(cfg SMTPConfig, codeTTL time.Duration) *SMTPSender {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	d.Timeout = 10 * time.Second
	return &SMTPSender{cfg: cfg, ttl: codeTTL, dialer: d}
}

func (s *SMTPSender) message(to, code string) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body(code, s.ttl))
	return m
}

func (s *SMTPSender) SendTwoFactorCode(ctx context.Context, to, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.message(to, code)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender writes codes to the log instead of mailing them. Only for
// development and test setups without an SMTP relay; NewCodeSender refuses
// it in other environments.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) SendTwoFactorCode(_ context.Context, to, code string) error {
	s.Logger.Warn("2fa code not mailed, smtp is not configured",
		slog.String("to", to),
		slog.String("code", code),
	)
	return nil
}
