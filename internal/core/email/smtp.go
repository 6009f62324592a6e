package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPProvider sends mail through any SMTP relay with gomail
type SMTPProvider struct {
	dialer    *gomail.Dialer
	fromEmail string
	fromName  string
}

func NewSMTPProvider(host string, port int, user, pass, fromEmail, fromName string) *SMTPProvider {
	return &SMTPProvider{
		dialer:    gomail.NewDialer(host, port, user, pass),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (p *SMTPProvider) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", p.fromEmail, p.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := p.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

func (p *SMTPProvider) GetProviderName() string {
	return "smtp"
}
