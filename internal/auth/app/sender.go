package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/verticelabs/authcore/internal/auth/email"
	"github.com/verticelabs/authcore/internal/auth/service"
)

// ErrNoSMTP is returned outside dev and test when SMTP_HOST is unset.
var ErrNoSMTP = errors.New("SMTP_HOST is required")

// NewCodeSender picks how 2FA codes are delivered. Without SMTP the codes
// are written to the log, which is only allowed in dev and test.
func NewCodeSender(cfg Config, logger *slog.Logger) (service.CodeSender, error) {
	if cfg.SMTP.Host != "" {
		return email.NewSMTPSender(cfg.SMTP, cfg.TwoFactorCodeTTL), nil
	}

	switch cfg.Env {
	case "", "dev", "test":
		logger.Warn("SMTP_HOST not set, 2fa codes will be written to the log")
		return email.LogSender{Logger: logger}, nil
	default:
		return nil, fmt.Errorf("ENV=%s: %w", cfg.Env, ErrNoSMTP)
	}
}
