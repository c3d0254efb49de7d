package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"shaadibiyah/internal/config"
	"shaadibiyah/internal/logger"
)

// Outcome is the result of one delivery attempt. Callers decide whether a
// failed outcome is fatal; only document generation treats it that way.
type Outcome struct {
	Delivered bool
	Reason    string
}

func Delivered() Outcome {
	return Outcome{Delivered: true}
}

func Failed(err error) Outcome {
	return Outcome{Delivered: false, Reason: err.Error()}
}

func (o Outcome) Err() error {
	if o.Delivered {
		return nil
	}
	return fmt.Errorf("email delivery failed: %s", o.Reason)
}

// Sender delivers a single HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) Outcome
}

// SMTPSender implements Sender over net/smtp.
type SMTPSender struct {
	auth smtp.Auth
	addr string
	from string
	log  *logger.Logger
}

// NewSender returns an SMTP sender, or a logging sender when no SMTP host is
// configured (development mode).
func NewSender(cfg config.EmailConfig, log *logger.Logger) Sender {
	if cfg.SMTPHost == "" {
		log.Warn("EMAIL", "SMTP host not configured, using logging email sender")
		return &LoggingSender{log: log}
	}

	auth := smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	return &SMTPSender{
		auth: auth,
		addr: cfg.SMTPHost + ":" + cfg.SMTPPort,
		from: cfg.FromAddress,
		log:  log,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) Outcome {
	var msg strings.Builder
	msg.WriteString("From: " + s.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg.String())); err != nil {
		s.log.Error("EMAIL", fmt.Sprintf("Failed to send email to %s: %v", to, err))
		return Failed(err)
	}

	s.log.LogEmail(to, subject, "delivered via SMTP")
	return Delivered()
}

// LoggingSender logs email content instead of sending it.
type LoggingSender struct {
	log *logger.Logger
}

func (s *LoggingSender) Send(ctx context.Context, to, subject, htmlBody string) Outcome {
	s.log.LogEmail(to, subject, "logged (SMTP not configured)")
	s.log.Debug("EMAIL", htmlBody)
	return Delivered()
}
