// Package mail sends transactional mail over SMTP.
//
// Only password reset mail is sent today. Delivery runs on the caller's
// goroutine; callers that must not block on SMTP should wrap Send in their
// own goroutine.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// ErrNotConfigured indicates SMTP settings are missing.
var ErrNotConfigured = errors.New("smtp not configured")

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// configured reports whether enough settings are present to attempt delivery.
func (c Config) configured() bool {
	return c.Host != "" && c.Port != 0 && c.From != ""
}

// Sender delivers mail through a single SMTP server.
type Sender struct {
	cfg    Config
	logger *slog.Logger

	// send is swapped in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSender creates a Sender. Returns ErrNotConfigured when the config is
// incomplete so callers can fall back to logging reset links.
func NewSender(cfg Config, logger *slog.Logger) (*Sender, error) {
	if !cfg.configured() {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{cfg: cfg, logger: logger, send: smtp.SendMail}, nil
}

// SendPasswordReset mails a password reset link to the given address.
func (s *Sender) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	subject := "Reset your password"
	body := fmt.Sprintf(
		"A password reset was requested for this address.\r\n\r\n"+
			"Open the link below to choose a new password. The link expires shortly.\r\n\r\n"+
			"%s\r\n\r\n"+
			"If you did not request this, you can ignore this mail.\r\n",
		resetURL,
	)
	return s.Send(ctx, to, subject, body)
}

// Send delivers a plain-text mail. The context is checked before dialing;
// net/smtp itself does not support cancellation mid-transfer.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("header injection in recipient or subject")
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		s.cfg.From, to, subject, body,
	)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := s.send(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}

	s.logger.Debug("mail sent", "to", to, "subject", subject)
	return nil
}
