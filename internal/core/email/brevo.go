package email

import (
	"context"
	"net/http"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// BrevoProvider sends transactional email through Brevo (formerly Sendinblue)
type BrevoProvider struct {
	jsonAPI
	sender brevoContact
}

func NewBrevoProvider(apiKey, fromEmail, fromName string) *BrevoProvider {
	header := http.Header{}
	header.Set("api-key", apiKey)
	return &BrevoProvider{
		jsonAPI: newJSONAPI("brevo", brevoEndpoint, header),
		sender:  brevoContact{Email: fromEmail, Name: fromName},
	}
}

type brevoEmailRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	Tags        []string       `json:"tags,omitempty"`
}

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (p *BrevoProvider) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	return p.post(ctx, brevoEmailRequest{
		Sender:      p.sender,
		To:          []brevoContact{{Email: to}},
		Subject:     subject,
		HTMLContent: htmlBody,
		Tags:        []string{"ams"},
	})
}
