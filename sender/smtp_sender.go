package sender

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/inkfinity/backend/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
	send     sendMailFunc
}

func NewSMTPSender(cfg config.NotifyConfig) (*SMTPSender, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST not set")
	}
	if cfg.SMTPPort == "" {
		return nil, fmt.Errorf("SMTP_PORT not set")
	}
	if cfg.SMTPUser == "" {
		return nil, fmt.Errorf("SMTP_USER not set")
	}
	if cfg.SMTPPass == "" {
		return nil, fmt.Errorf("SMTP_PASS not set")
	}
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUser,
		password: cfg.SMTPPass,
		from:     cfg.SMTPUser,
		send:     smtp.SendMail,
	}, nil
}

func (s *SMTPSender) SendEmail(ctx context.Context, to, subject, body string) (SendResult, error) {
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	if err := s.send(addr, auth, s.from, []string{to}, buildMessage(s.from, to, subject, body)); err != nil {
		return SendResult{}, fmt.Errorf("smtp send failed: %w", err)
	}

	return SendResult{
		MessageID: fmt.Sprintf("smtp-%d", time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte(
		"From: " + from + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			body,
	)
}
