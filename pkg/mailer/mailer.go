package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/lromeroa/grocerly-backend/pkg/config"
	"github.com/lromeroa/grocerly-backend/pkg/logger"
)

// Sender delivers transactional mail such as registration OTP codes.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender delivers mail over plain SMTP with optional auth.
type SMTPSender struct {
	cfg config.SMTPConfig
}

// NewSMTPSender builds a sender from the SMTP configuration.
func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.DefaultFrom == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	return &SMTPSender{cfg: cfg}, nil
}

// Send writes a single plain-text message.
func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("recipient is required")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.DefaultFrom,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, s.cfg.DefaultFrom, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

// LogSender logs messages instead of delivering them. Used in dev when no
// SMTP host is configured.
type LogSender struct {
	logg *logger.Logger
}

// NewLogSender builds a sender that only logs.
func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

// Send records the message in the application log.
func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"to":      to,
			"subject": subject,
		})
		s.logg.Info(ctx, "mail.logged")
	}
	return nil
}

// FromConfig picks the SMTP sender when configured, the log sender otherwise.
func FromConfig(cfg config.SMTPConfig, logg *logger.Logger) (Sender, error) {
	if cfg.Host == "" {
		return NewLogSender(logg), nil
	}
	return NewSMTPSender(cfg)
}
