package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/rs/zerolog/log"

	"github.com/adwelink/ams-api/internal/core/analytics"
	"github.com/adwelink/ams-api/internal/core/audit"
	"github.com/adwelink/ams-api/internal/core/auth"
	"github.com/adwelink/ams-api/internal/core/email"
	"github.com/adwelink/ams-api/internal/core/export"
	"github.com/adwelink/ams-api/internal/core/llm"
	"github.com/adwelink/ams-api/internal/core/notification"
	"github.com/adwelink/ams-api/internal/core/scheduler"
	"github.com/adwelink/ams-api/internal/core/whatsapp"
	"github.com/adwelink/ams-api/internal/modules/ams/handlers"
	"github.com/adwelink/ams-api/internal/modules/ams/repositories"
	"github.com/adwelink/ams-api/internal/modules/ams/services"
	"github.com/adwelink/ams-api/internal/shared/config"
	"github.com/adwelink/ams-api/internal/shared/database"
	"github.com/adwelink/ams-api/internal/shared/middleware"
	"github.com/adwelink/ams-api/internal/shared/utils"

	_ "github.com/adwelink/ams-api/cmd/ams-api/docs"
)

// @title Adwelink AMS API
// @version 1.0
// @description Admissions management for coaching institutes: leads, fees and a WhatsApp AI assistant.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.Env, cfg.LogLevel, cfg.LogFile)
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("🚀 Starting ams-api")

	db := database.NewDB(cfg.DatabaseURL, cfg.LogLevel == "debug")
	defer db.Close()

	// Repositories
	instituteRepo := repositories.NewInstituteRepo(db.GORM)
	inviteRepo := repositories.NewInviteCodeRepo(db.GORM)
	leadRepo := repositories.NewLeadRepo(db.GORM)
	courseRepo := repositories.NewCourseRepo(db.GORM)
	feeRepo := repositories.NewFeeRepo(db.GORM)
	conversationRepo := repositories.NewConversationRepo(db.GORM)
	messageRepo := repositories.NewMessageRepo(db.GORM)

	// Core services
	auditService := audit.NewService(db.GORM)

	var google auth.GoogleVerifier
	if g := auth.NewGoogleOAuthService(cfg.GoogleClientID); g != nil {
		google = g
	}
	authService := auth.NewService(db.GORM, auth.NewJWTService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL), google)

	var responder services.Responder
	llmService, err := llm.NewService(&llm.ProviderConfig{
		Type:   llm.ProviderType(cfg.LLMProvider),
		APIKey: cfg.APIKeyForProvider(cfg.LLMProvider),
		Model:  cfg.LLMModel,
	})
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ LLM not configured, AI replies disabled")
	} else {
		responder = llmService
	}

	emailProvider, err := email.NewProviderFromSettings(email.Settings{
		Provider:     cfg.EmailProvider,
		BrevoAPIKey:  cfg.BrevoAPIKey,
		ResendAPIKey: cfg.ResendAPIKey,
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUser:     cfg.SMTPUser,
		SMTPPass:     cfg.SMTPPass,
		FromEmail:    cfg.EmailFrom,
		FromName:     cfg.EmailFromName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Invalid email configuration")
	}
	emailService := email.NewService(emailProvider)
	if emailService.Enabled() {
		log.Info().Str("provider", emailService.GetProviderName()).Msg("📧 Email enabled")
	} else {
		log.Warn().Msg("⚠️ Email service not configured")
	}
	notifier := notification.NewService(emailService, cfg.SuperAdminEmail)

	// Domain services
	instituteService := services.NewInstituteService(instituteRepo, whatsapp.NewClientFactory(whatsapp.DefaultGraphURL, cfg.WhatsAppAPIVersion))
	inviteService := services.NewInviteService(inviteRepo)
	onboardingService := services.NewOnboardingService(db.GORM, instituteRepo, inviteRepo, authService, notifier)
	aggregator := analytics.NewAggregator(db.GORM)
	leadService := services.NewLeadService(leadRepo, courseRepo, aggregator, export.NewService())
	courseService := services.NewCourseService(courseRepo)
	conversationService := services.NewConversationService(conversationRepo, messageRepo, instituteService)
	feeService := services.NewFeeService(feeRepo, leadRepo, courseRepo, instituteService, conversationService)
	dashboardService := services.NewDashboardService(aggregator, feeService, inviteRepo)

	webhookService, err := services.NewWebhookService(
		instituteService, leadService, courseRepo, conversationRepo, messageRepo,
		conversationService, responder, cfg.WebhookWorkers,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to start webhook workers")
	}

	// Scheduled jobs
	sched := scheduler.New()
	jobs := services.NewJobService(leadRepo, feeRepo, instituteRepo, feeService, notifier, auditService)
	if err := jobs.Register(sched, cfg.FollowUpCron, cfg.FeeReminderCron); err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to schedule jobs")
	}
	sched.Start()

	h := &handlers.Handlers{
		Health:       handlers.NewHealthHandler(db.GORM),
		Webhook:      handlers.NewWebhookHandler(webhookService, cfg.WhatsAppVerifyToken, cfg.WhatsAppAppSecret),
		Auth:         auth.NewHandler(authService, auditService),
		Onboarding:   handlers.NewOnboardingHandler(onboardingService, inviteService, auditService),
		Institute:    handlers.NewInstituteHandler(instituteService, auditService),
		Lead:         handlers.NewLeadHandler(leadService, instituteService, auditService),
		Course:       handlers.NewCourseHandler(courseService, auditService),
		Fee:          handlers.NewFeeHandler(feeService, auditService),
		Conversation: handlers.NewConversationHandler(conversationService, auditService),
		Dashboard:    handlers.NewDashboardHandler(dashboardService),
		Admin:        handlers.NewAdminHandler(instituteService, onboardingService, inviteService, dashboardService, auditService),
	}

	app := fiber.New(fiber.Config{
		AppName:      "Adwelink AMS API",
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    8 * 1024 * 1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger("/health"))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: strings.Join([]string{
			fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete, fiber.MethodOptions,
		}, ","),
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)
	handlers.RegisterRoutes(app, h, authService)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("✅ ams-api listening")
		log.Info().Msgf("📄 Swagger UI: http://localhost:%s/swagger/", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("❌ Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("🛑 Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("❌ HTTP shutdown failed")
	}
	sched.Stop()
	webhookService.Close()
	log.Info().Msg("👋 ams-api stopped")
}
