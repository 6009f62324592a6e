package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	CORSOrigins string

	LogLevel string
	LogFile  string

	JWTSecret       string
	JWTAccessTTL    time.Duration
	JWTRefreshTTL   time.Duration
	GoogleClientID  string
	SuperAdminEmail string

	// Meta WhatsApp Cloud API
	WhatsAppVerifyToken string
	WhatsAppAPIVersion  string
	WhatsAppAppSecret   string
	WebhookWorkers      int

	// LLM
	LLMProvider    string
	LLMModel       string
	OpenAIKey      string
	GroqAPIKey     string
	DeepSeekAPIKey string

	// Email
	EmailProvider string
	BrevoAPIKey   string
	ResendAPIKey  string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	EmailFrom     string
	EmailFromName string

	// Cron specs (robfig/cron with seconds)
	FeeReminderCron string
	FollowUpCron    string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("⚠️ .env file not found, using system environment variables")
	}

	cfg := &Config{
		Port:        os.Getenv("PORT"),
		Env:         os.Getenv("ENV"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		CORSOrigins: os.Getenv("CORS_ORIGINS"),

		LogLevel: os.Getenv("LOG_LEVEL"),
		LogFile:  os.Getenv("LOG_FILE"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTAccessTTL:    durationEnv("JWT_ACCESS_TTL", 15*time.Minute),
		JWTRefreshTTL:   durationEnv("JWT_REFRESH_TTL", 7*24*time.Hour),
		GoogleClientID:  os.Getenv("GOOGLE_CLIENT_ID"),
		SuperAdminEmail: os.Getenv("SUPER_ADMIN_EMAIL"),

		WhatsAppVerifyToken: os.Getenv("WHATSAPP_VERIFY_TOKEN"),
		WhatsAppAPIVersion:  os.Getenv("WHATSAPP_API_VERSION"),
		WhatsAppAppSecret:   os.Getenv("WHATSAPP_APP_SECRET"),
		WebhookWorkers:      intEnv("WEBHOOK_WORKERS", 10),

		LLMProvider:    os.Getenv("LLM_PROVIDER"),
		LLMModel:       os.Getenv("LLM_MODEL"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		GroqAPIKey:     os.Getenv("GROQ_API_KEY"),
		DeepSeekAPIKey: os.Getenv("DEEPSEEK_API_KEY"),

		EmailProvider: os.Getenv("EMAIL_PROVIDER"),
		BrevoAPIKey:   os.Getenv("BREVO_API_KEY"),
		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      intEnv("SMTP_PORT", 587),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),
		EmailFrom:     os.Getenv("EMAIL_FROM"),
		EmailFromName: os.Getenv("EMAIL_FROM_NAME"),

		FeeReminderCron: os.Getenv("FEE_REMINDER_CRON"),
		FollowUpCron:    os.Getenv("FOLLOW_UP_CRON"),
	}

	// Default values
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.CORSOrigins == "" {
		cfg.CORSOrigins = "*"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.WhatsAppAPIVersion == "" {
		cfg.WhatsAppAPIVersion = "v18.0"
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "openai"
	}
	if cfg.EmailProvider == "" {
		cfg.EmailProvider = "brevo"
	}
	if cfg.EmailFromName == "" {
		cfg.EmailFromName = "Adwelink AMS"
	}
	if cfg.FeeReminderCron == "" {
		cfg.FeeReminderCron = "0 0 9 * * *"
	}
	if cfg.FollowUpCron == "" {
		cfg.FollowUpCron = "0 */15 * * * *"
	}
	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		log.Warn().Msg("⚠️ JWT_SECRET not set, using insecure development secret")
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// APIKeyForProvider returns the configured key for an LLM provider name.
func (c *Config) APIKeyForProvider(provider string) string {
	switch strings.ToLower(provider) {
	case "groq":
		return c.GroqAPIKey
	case "deepseek":
		return c.DeepSeekAPIKey
	default:
		return c.OpenAIKey
	}
}

func intEnv(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := cast.ToIntE(raw)
	if err != nil || v <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Msg("⚠️ invalid integer env, using default")
		return def
	}
	return v
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := cast.ToDurationE(raw)
	if err != nil || v <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Msg("⚠️ invalid duration env, using default")
		return def
	}
	return v
}
