package email

import (
	"context"
	"fmt"
	"net/http"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendProvider sends email via the Resend API
type ResendProvider struct {
	jsonAPI
	from string
}

func NewResendProvider(apiKey, fromEmail, fromName string) *ResendProvider {
	from := fromEmail
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromEmail)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+apiKey)
	return &ResendProvider{
		jsonAPI: newJSONAPI("resend", resendEndpoint, header),
		from:    from,
	}
}

type resendEmailRequest struct {
	From    string      `json:"from"`
	To      []string    `json:"to"`
	Subject string      `json:"subject"`
	HTML    string      `json:"html"`
	Tags    []resendTag `json:"tags,omitempty"`
}

type resendTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (p *ResendProvider) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	return p.post(ctx, resendEmailRequest{
		From:    p.from,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
		Tags:    []resendTag{{Name: "app", Value: "ams"}},
	})
}
