package verify

import (
	"fmt"
	"net/smtp"
)

// Sender delivers a plain-text mail to one recipient.
type Sender interface {
	Send(to, subject, body string) error
}

// MailConfig carries SMTP settings. An empty Host disables mail
// delivery; handlers then log the token instead of sending it, which
// keeps local development working without an SMTP account.
type MailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type smtpSender struct {
	cfg MailConfig
}

func NewSMTPSender(cfg MailConfig) Sender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.cfg.From, to, subject, body)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := s.cfg.Host + ":" + s.cfg.Port

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}
