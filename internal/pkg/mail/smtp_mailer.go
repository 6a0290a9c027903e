package mail

import (
	"fmt"
	"net/smtp"

	"github.com/formworks/licensing/internal/pkg/env"
	"github.com/formworks/licensing/internal/pkg/logger"
	"go.uber.org/zap"
)

// SendMail sends an HTML email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	log := logger.Get()
	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Warn("SMTP_SENDER not set, using default sender", zap.String("sender", sender))
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Error("SMTP send failed", zap.String("to", to), zap.Error(err))
	} else {
		log.Info("email sent", zap.String("to", to), zap.String("addr", addr))
	}
	return err
}
