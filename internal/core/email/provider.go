package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Provider defines the interface for email providers
type Provider interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
	GetProviderName() string
}

// Settings select and configure a provider
type Settings struct {
	Provider     string // brevo, resend, smtp
	BrevoAPIKey  string
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPass     string
	FromEmail    string
	FromName     string
}

// NewProviderFromSettings returns nil, nil when the chosen provider has no
// credentials so email can stay disabled in development.
func NewProviderFromSettings(s Settings) (Provider, error) {
	if s.FromEmail == "" {
		log.Warn().Msg("⚠️ EMAIL_FROM not set, email notifications disabled")
		return nil, nil
	}

	switch strings.ToLower(s.Provider) {
	case "brevo", "":
		if s.BrevoAPIKey == "" {
			return nil, nil
		}
		return NewBrevoProvider(s.BrevoAPIKey, s.FromEmail, s.FromName), nil
	case "resend":
		if s.ResendAPIKey == "" {
			return nil, nil
		}
		return NewResendProvider(s.ResendAPIKey, s.FromEmail, s.FromName), nil
	case "smtp":
		if s.SMTPHost == "" {
			return nil, nil
		}
		return NewSMTPProvider(s.SMTPHost, s.SMTPPort, s.SMTPUser, s.SMTPPass, s.FromEmail, s.FromName), nil
	default:
		return nil, fmt.Errorf("unknown email provider: %s", s.Provider)
	}
}

// Service wraps the email provider
type Service struct {
	provider Provider
}

// NewService creates a new email service with the specified provider
func NewService(provider Provider) *Service {
	return &Service{
		provider: provider,
	}
}

// Enabled reports whether a provider is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.provider != nil
}

// SendEmail sends an HTML email
func (s *Service) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if !s.Enabled() {
		return fmt.Errorf("no email provider configured")
	}
	return s.provider.SendEmail(ctx, to, subject, htmlBody)
}

// SendNotice renders the standard notice layout and sends it
func (s *Service) SendNotice(ctx context.Context, to string, notice Notice) error {
	body, err := RenderNotice(notice)
	if err != nil {
		return err
	}
	return s.SendEmail(ctx, to, notice.Title, body)
}

// GetProviderName returns the name of the current provider
func (s *Service) GetProviderName() string {
	if !s.Enabled() {
		return "none"
	}
	return s.provider.GetProviderName()
}
