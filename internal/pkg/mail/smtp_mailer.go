package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/velomica/accounthub/internal/pkg/env"
)

// SendMail sends an HTML email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
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
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// SendActivationMail sends the account activation link to a new user.
func SendActivationMail(to, username, token, baseURL string) error {
	link := fmt.Sprintf("%s/activate?token=%s", baseURL, token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>welcome to AccountHub! Please confirm your email address:</p>"+
			"<p><a href=\"%s\">Activate your account</a></p>"+
			"<p>If you did not sign up, you can ignore this email.</p>",
		username, link,
	)
	return SendMail(to, "Activate your AccountHub account", body)
}

// SendSubscriptionNotice informs the user about a membership change.
func SendSubscriptionNotice(to, username, tierName string, active bool) error {
	var subject, body string
	if active {
		subject = "Your membership is active"
		body = fmt.Sprintf(
			"<p>Hi %s,</p><p>your <strong>%s</strong> membership is now active. Thanks for your support!</p>",
			username, tierName,
		)
	} else {
		subject = "Your membership has ended"
		body = fmt.Sprintf(
			"<p>Hi %s,</p><p>your membership has ended. You can resubscribe any time from your membership page.</p>",
			username,
		)
	}
	return SendMail(to, subject, body)
}
