package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "WHATSAPP_API_VERSION", "WEBHOOK_WORKERS", "JWT_ACCESS_TTL", "FOLLOW_UP_CRON"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.WhatsAppAPIVersion != "v18.0" {
		t.Errorf("WhatsAppAPIVersion = %q", cfg.WhatsAppAPIVersion)
	}
	if cfg.WebhookWorkers != 10 {
		t.Errorf("WebhookWorkers = %d, want 10", cfg.WebhookWorkers)
	}
	if cfg.JWTAccessTTL != 15*time.Minute {
		t.Errorf("JWTAccessTTL = %v", cfg.JWTAccessTTL)
	}
	if cfg.FollowUpCron != "0 */15 * * * *" {
		t.Errorf("FollowUpCron = %q", cfg.FollowUpCron)
	}
}

func TestLoadConfigParsesNumbers(t *testing.T) {
	t.Setenv("WEBHOOK_WORKERS", "25")
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("JWT_REFRESH_TTL", "48h")

	cfg := LoadConfig()

	if cfg.WebhookWorkers != 25 {
		t.Errorf("WebhookWorkers = %d, want 25", cfg.WebhookWorkers)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want fallback 587", cfg.SMTPPort)
	}
	if cfg.JWTRefreshTTL != 48*time.Hour {
		t.Errorf("JWTRefreshTTL = %v, want 48h", cfg.JWTRefreshTTL)
	}
}

func TestAPIKeyForProvider(t *testing.T) {
	cfg := &Config{OpenAIKey: "o", GroqAPIKey: "g", DeepSeekAPIKey: "d"}
	cases := map[string]string{"openai": "o", "Groq": "g", "deepseek": "d", "": "o"}
	for provider, want := range cases {
		if got := cfg.APIKeyForProvider(provider); got != want {
			t.Errorf("APIKeyForProvider(%q) = %q, want %q", provider, got, want)
		}
	}
}
