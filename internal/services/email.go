package services

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"agri-advisor-backend/internal/logger"
	"agri-advisor-backend/internal/models"
)

type EmailService struct {
	host         string
	port         string
	user         string
	pass         string
	from         string
	supportEmail string
	devMode      bool
	send         func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailService(host, port, user, pass, from, supportEmail string) *EmailService {
	devMode := host == "" || user == ""
	if devMode {
		logger.Log.Warn("Email service running in DEV MODE (logging to console)")
	}
	return &EmailService{
		host:         host,
		port:         port,
		user:         user,
		pass:         pass,
		from:         from,
		supportEmail: supportEmail,
		devMode:      devMode,
		send:         smtp.SendMail,
	}
}

// SendContactNotification forwards a contact-form message to the support inbox.
func (s *EmailService) SendContactNotification(msg *models.ContactMessage) error {
	subject := fmt.Sprintf("[Contact] %s", msg.Subject)
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; background-color: #f7fdf4;">
  <div style="max-width: 560px; margin: 32px auto; background: white; border-radius: 12px; overflow: hidden;">
    <div style="background: #2f855a; padding: 24px;">
      <h1 style="color: white; margin: 0; font-size: 20px;">New message from the contact form</h1>
    </div>
    <div style="padding: 24px; color: #1a202c; font-size: 14px; line-height: 1.6;">
      <p><strong>From:</strong> %s &lt;%s&gt;</p>
      <p><strong>Subject:</strong> %s</p>
      <p style="white-space: pre-wrap;">%s</p>
      <p style="color: #718096; font-size: 12px;">Reference: %s</p>
    </div>
  </div>
</body>
</html>`,
		html.EscapeString(msg.Name), html.EscapeString(msg.Email),
		html.EscapeString(msg.Subject), html.EscapeString(msg.Message), msg.ID)

	return s.sendHTML(s.supportEmail, msg.Email, subject, body)
}

func (s *EmailService) sendHTML(to, replyTo, subject, htmlBody string) error {
	if s.devMode {
		logger.InfoWithFields("[DEV EMAIL]", logger.Fields{"to": to, "subject": subject})
		logger.Log.Debugf("Body:\n%s", htmlBody)
		return nil
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", sanitizeHeader(subject)),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	if replyTo != "" {
		headers = append(headers, fmt.Sprintf("Reply-To: %s", sanitizeHeader(replyTo)))
	}

	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := s.send(addr, auth, s.from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	logger.Log.Infof("Email sent to %s: %s", to, subject)
	return nil
}

// sanitizeHeader strips line breaks so user input cannot inject headers.
func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
