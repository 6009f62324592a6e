package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Service wraps an LLM provider for dependency injection
type Service struct {
	provider LLMProvider
	timeout  time.Duration
}

// NewService creates the service from a provider config
func NewService(cfg *ProviderConfig) (*Service, error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}

	log.Info().Str("provider", provider.GetProviderName()).Str("model", cfg.Model).Msg("🤖 LLM provider ready")

	return NewServiceWithProvider(provider), nil
}

// NewServiceWithProvider creates service with a custom provider
func NewServiceWithProvider(provider LLMProvider) *Service {
	return &Service{provider: provider, timeout: 45 * time.Second}
}

// GenerateResponse generates an AI reply, trimming whitespace and refusing
// empty answers.
func (s *Service) GenerateResponse(ctx context.Context, systemPrompt string, turns []Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.provider.GenerateResponse(ctx, systemPrompt, turns)
	if err != nil {
		return "", err
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("%s returned an empty reply", s.provider.GetProviderName())
	}
	return reply, nil
}

// GetProviderName returns current provider name
func (s *Service) GetProviderName() string {
	return s.provider.GetProviderName()
}
