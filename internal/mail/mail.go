// Package mail delivers the verification and reset links. Delivery is
// best effort by contract: callers log failures and carry on, so a
// broken SMTP relay can never fail a signup.
package mail

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Mailer sends a plain-text message to a single recipient.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPConfig holds outbound transport settings. When Host, User, or
// Pass is empty the service falls back to LogMailer.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Configured reports whether the transport settings are complete.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.User != "" && c.Pass != ""
}

// SMTPMailer sends over SMTP with STARTTLS and a dial timeout.
type SMTPMailer struct {
	config SMTPConfig
}

// NewSMTP returns a Mailer for the given transport settings.
func NewSMTP(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = "noreply@example.com"
	}
	return &SMTPMailer{config: cfg}
}

// Send delivers one message, negotiating STARTTLS before AUTH.
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", m.config.From),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}

	client, err := smtp.NewClient(conn, m.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.config.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	auth := smtp.PlainAuth("", m.config.User, m.config.Pass, m.config.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(m.config.From); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}

	return client.Quit()
}

// LogMailer is the development fallback: the message, including the
// link a real mail would carry, goes to the log instead of the wire.
type LogMailer struct {
	Logger *slog.Logger
}

// Send logs the message and reports success.
func (m *LogMailer) Send(to, subject, body string) error {
	m.Logger.Info("mail transport not configured, logging message",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}
