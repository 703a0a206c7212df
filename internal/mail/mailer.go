package mail

import (
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional email.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPConfig carries the transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends HTML email over SMTP.
type SMTPMailer struct {
	config SMTPConfig
	dialer *gomail.Dialer
	logger *slog.Logger
}

func NewSMTPMailer(config SMTPConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		config: config,
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		logger: logger,
	}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error("smtp send failed",
			"to", to,
			"subject", subject,
			"host", m.config.Host,
			"port", m.config.Port,
			"error", err)
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	m.logger.Info("mail sent", "to", to, "subject", subject)
	return nil
}

// NoopMailer is used when SMTP is not configured. Sends are logged and
// dropped so development environments work without a mail server.
type NoopMailer struct {
	logger *slog.Logger
}

func NewNoopMailer(logger *slog.Logger) *NoopMailer {
	return &NoopMailer{logger: logger}
}

func (m *NoopMailer) Send(to, subject, _ string) error {
	m.logger.Info("mail disabled, dropping message", "to", to, "subject", subject)
	return nil
}
