package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/logger"
	"gopkg.in/gomail.v2"
)

type Sender interface {
	Send(ctx context.Context, to []string, subject, bodyText string) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpSender struct {
	from string
	log  logger.Logger
	d    dialer
}

func NewSMTPSender(cfg config.SMTPConfig, log logger.Logger) (Sender, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.SenderEmail == "" {
		return nil, fmt.Errorf("SMTP host, port, and sender email must be configured")
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	serverName := cfg.ServerName
	if serverName == "" {
		serverName = cfg.Host
	}
	switch strings.ToLower(cfg.Encryption) {
	case "ssl":
		d.SSL = true
		d.TLSConfig = &tls.Config{ServerName: serverName, MinVersion: tls.VersionTLS12}
	case "tls", "starttls":
		d.TLSConfig = &tls.Config{ServerName: serverName, MinVersion: tls.VersionTLS12}
	}

	return &smtpSender{from: cfg.SenderEmail, log: log, d: d}, nil
}

func (s *smtpSender) Send(ctx context.Context, to []string, subject, bodyText string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients provided for email")
	}
	if bodyText == "" {
		return fmt.Errorf("email body must be provided")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", bodyText)

	done := make(chan error, 1)
	go func() {
		done <- s.d.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		s.log.Warnf("Email to %v (subject: %s) cancelled: %v", to, subject, ctx.Err())
		return fmt.Errorf("email sending cancelled or timed out: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			s.log.Errorf("Failed to send email to %v, subject '%s': %v", to, subject, err)
			return fmt.Errorf("failed to send email: %w", err)
		}
	}

	s.log.Infof("Email sent to %v, subject: %s", to, subject)
	return nil
}

type noopSender struct{}

func NewNoopSender() Sender { return noopSender{} }

func (noopSender) Send(context.Context, []string, string, string) error { return nil }
