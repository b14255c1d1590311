// Package email sends operator alerts over SMTP.
package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

// Dialer is the part of gomail.Dialer the service needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPEmailService struct {
	config SMTPConfig
	dialer Dialer
}

func NewSMTPEmailService(config SMTPConfig) *SMTPEmailService {
	return NewSMTPEmailServiceWithDialer(config, gomail.NewDialer(config.Host, config.Port, config.Username, config.Password))
}

func NewSMTPEmailServiceWithDialer(config SMTPConfig, dialer Dialer) *SMTPEmailService {
	return &SMTPEmailService{
		config: config,
		dialer: dialer,
	}
}

// Send delivers one message to every recipient.
func (s *SMTPEmailService) Send(to []string, subject, htmlBody, plainBody string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	m := gomail.NewMessage()
	if s.config.FromName != "" {
		m.SetAddressHeader("From", s.config.FromAddress, s.config.FromName)
	} else {
		m.SetHeader("From", s.config.FromAddress)
	}
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
