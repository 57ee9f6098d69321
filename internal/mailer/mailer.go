package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"formcraft/internal/config"
)

// Sender delivers transactional mail. Delivery is best-effort everywhere it
// is used: a failed send is logged by the caller and never rolls back the
// save or submission that triggered it.
type Sender interface {
	SendVerification(to, link string) error
	SendSubmissionNotification(to, formTitle string) error
}

// SMTPSender implements Sender over plain SMTP.
type SMTPSender struct {
	cfg config.MailConfig
}

func NewSMTP(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendVerification(to, link string) error {
	body := fmt.Sprintf(
		"Welcome to FormCraft!\r\n\r\nPlease verify your email address by visiting:\r\n%s\r\n",
		link,
	)
	return s.send(to, "Verify Your FormCraft Account", body)
}

func (s *SMTPSender) SendSubmissionNotification(to, formTitle string) error {
	body := fmt.Sprintf(
		"Your form %q just received a new submission.\r\n\r\nSign in to view it.\r\n",
		formTitle,
	)
	return s.send(to, fmt.Sprintf("New submission: %s", formTitle), body)
}

func (s *SMTPSender) send(to, subject, body string) error {
	if s.cfg.Host == "" {
		return fmt.Errorf("smtp is not configured")
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}
