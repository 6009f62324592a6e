package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one prior message in a conversation
type Turn struct {
	Role    string
	Content string
}

// LLMProvider generates a reply for a conversation
type LLMProvider interface {
	GenerateResponse(ctx context.Context, systemPrompt string, turns []Turn) (string, error)
	GetProviderName() string
}

// ProviderType selects an OpenAI-compatible backend
type ProviderType string

const (
	ProviderOpenAI   ProviderType = "openai"
	ProviderGroq     ProviderType = "groq"
	ProviderDeepSeek ProviderType = "deepseek"
)

// ProviderConfig configures NewProvider
type ProviderConfig struct {
	Type        ProviderType
	APIKey      string
	Model       string
	BaseURL     string // overrides the provider default, used in tests
	Temperature float32
	MaxTokens   int
}

type backend struct {
	name    string
	baseURL string
	model   string
}

var backends = map[ProviderType]backend{
	ProviderOpenAI:   {name: "OpenAI", model: "gpt-4o-mini"},
	ProviderGroq:     {name: "Groq", baseURL: "https://api.groq.com/openai/v1", model: "llama-3.1-8b-instant"},
	ProviderDeepSeek: {name: "DeepSeek", baseURL: "https://api.deepseek.com", model: "deepseek-chat"},
}

// NewProvider builds the provider named in cfg
func NewProvider(cfg *ProviderConfig) (LLMProvider, error) {
	b, ok := backends[ProviderType(strings.ToLower(string(cfg.Type)))]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider type: %s", cfg.Type)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key for %s is required", b.name)
	}

	model := cfg.Model
	if model == "" {
		model = b.model
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = b.baseURL
	}

	return NewOpenAICompatibleProvider(b.name, cfg.APIKey, baseURL, model, cfg.Temperature, cfg.MaxTokens), nil
}
