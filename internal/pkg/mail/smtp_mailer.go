package mail

import (
	"fmt"
	"log"
	"mime"
	"net/smtp"

	"github.com/aseguraplus/SeguroPay/internal/pkg/env"
)

const senderName = "SeguroPay"

// SendMail sends an HTML email via the configured SMTP relay. Outcome mails
// are written in Spanish, so the subject is MIME Q-encoded for the accented
// characters.
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = "no-reply@seguropay.local"
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	msg := buildMessage(sender, to, subject, body)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

func buildMessage(sender, to, subject, body string) []byte {
	encodedSubject := mime.QEncoding.Encode("utf-8", subject)
	return []byte(
		fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\n", senderName, sender, to, encodedSubject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)
}
