package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/port"
)

// Config holds SMTP connection settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender implements port.EmailSender over plain SMTP. Requesters are
// reached here because they usually have no Lark account.
type Sender struct {
	cfg    Config
	logger *zap.Logger
}

// NewSender creates a new SMTP email sender
func NewSender(cfg Config, logger *zap.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// Send delivers one plain-text email
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	if s.cfg.Host == "" || s.cfg.Port <= 0 {
		return fmt.Errorf("smtp is not configured")
	}
	if !strings.Contains(to, "@") {
		return fmt.Errorf("invalid email address: %s", to)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		s.logger.Error("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	s.logger.Info("Email sent",
		zap.String("to", to),
		zap.String("subject", subject))

	return nil
}

var _ port.EmailSender = (*Sender)(nil)
