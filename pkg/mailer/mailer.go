// Package mailer sends transactional e-mails over SMTP.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	gomail "gopkg.in/gomail.v2"
)

// Sender delivers a rendered HTML message.
type Sender interface {
	Send(to, subject, html string) error
}

// SMTPConfig holds SMTP credentials.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SMTPSender delivers e-mails through an SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender validates the configuration.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		return nil, fmt.Errorf("smtp host, port and from address must be provided")
	}
	return &SMTPSender{cfg: cfg}, nil
}

func (s *SMTPSender) Send(to, subject, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Pass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// NotificationEmail is the data rendered into the notification template.
type NotificationEmail struct {
	RecipientName string
	Title         string
	Message       string
	Link          string
}

var notificationTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html lang="fr">
<body style="font-family: Arial, sans-serif; color: #1f2933;">
  <p>Bonjour {{.RecipientName}},</p>
  <h2 style="color: #0b5394;">{{.Title}}</h2>
  <p>{{.Message}}</p>
  {{if .Link}}<p><a href="{{.Link}}">Voir sur la plateforme LED</a></p>{{end}}
  <p style="font-size: 12px; color: #7b8794;">Programme LED : Leadership, Entrepreneuriat, Digital</p>
</body>
</html>`))

// RenderNotification renders the HTML body of a notification e-mail.
func RenderNotification(data NotificationEmail) (string, error) {
	var buf bytes.Buffer
	if err := notificationTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
