package handlers

import (
	"github.com/adwelink/ams-api/internal/core/auth"
	"github.com/gofiber/fiber/v2"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Health       *HealthHandler
	Webhook      *WebhookHandler
	Auth         *auth.Handler
	Onboarding   *OnboardingHandler
	Institute    *InstituteHandler
	Lead         *LeadHandler
	Course       *CourseHandler
	Fee          *FeeHandler
	Conversation *ConversationHandler
	Dashboard    *DashboardHandler
	Admin        *AdminHandler
}

// RegisterRoutes mounts the public, tenant and super-admin routes on app
func RegisterRoutes(app *fiber.App, h *Handlers, tokens auth.TokenValidator) {
	app.Get("/health", h.Health.GetHealth)

	app.Get("/webhooks/whatsapp", h.Webhook.Verify)
	app.Post("/webhooks/whatsapp", h.Webhook.Receive)

	api := app.Group("/api/v1")
	requireAuth := auth.AuthMiddleware(tokens)

	// Auth
	authGroup := api.Group("/auth")
	authGroup.Post("/signup", h.Onboarding.Signup)
	authGroup.Post("/invite-codes/validate", h.Onboarding.ValidateInvite)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/google", h.Auth.LoginWithGoogle)
	authGroup.Post("/refresh", h.Auth.RefreshToken)
	authGroup.Post("/logout", requireAuth, h.Auth.Logout)
	authGroup.Get("/me", requireAuth, h.Auth.Me)

	// Tenant routes. Each prefix gets its own group so the tenant guards
	// never run for /auth or /admin.
	staff := auth.RequireRole(auth.RoleInstituteAdmin, auth.RoleStaff)
	adminOnly := auth.RequireRole(auth.RoleInstituteAdmin)
	tenant := func(prefix string) fiber.Router {
		return api.Group(prefix, requireAuth, staff, auth.RequireInstitute())
	}

	institute := tenant("/institute")
	institute.Get("/", h.Institute.GetInstitute)
	institute.Put("/", adminOnly, h.Institute.UpdateInstitute)
	institute.Put("/whatsapp", adminOnly, h.Institute.UpdateWhatsApp)
	institute.Post("/whatsapp/test", adminOnly, h.Institute.SendTestMessage)
	institute.Put("/ai", adminOnly, h.Institute.UpdateAI)
	institute.Get("/qr", h.Institute.GetQRCode)
	institute.Get("/users", adminOnly, h.Auth.ListUsers)
	institute.Post("/users", adminOnly, h.Auth.CreateUser)
	institute.Delete("/users/:id", adminOnly, h.Auth.DeactivateUser)

	leads := tenant("/leads")
	leads.Get("/", h.Lead.ListLeads)
	leads.Post("/", h.Lead.CreateLead)
	leads.Get("/stats", h.Lead.GetStats)
	leads.Get("/export", h.Lead.ExportLeads)
	leads.Post("/import", h.Lead.ImportLeads)
	leads.Get("/:id", h.Lead.GetLead)
	leads.Put("/:id", h.Lead.UpdateLead)
	leads.Delete("/:id", h.Lead.DeleteLead)
	leads.Patch("/:id/status", h.Lead.UpdateStatus)
	leads.Get("/:id/notes", h.Lead.ListNotes)
	leads.Post("/:id/notes", h.Lead.AddNote)

	courses := tenant("/courses")
	courses.Get("/", h.Course.ListCourses)
	courses.Post("/", h.Course.CreateCourse)
	courses.Put("/:id", h.Course.UpdateCourse)
	courses.Delete("/:id", h.Course.DeleteCourse)

	fees := tenant("/fees")
	fees.Get("/", h.Fee.ListFees)
	fees.Post("/", h.Fee.CreateFee)
	fees.Get("/summary", h.Fee.GetSummary)
	fees.Get("/:id", h.Fee.GetFee)
	fees.Post("/:id/payments", h.Fee.RecordPayment)
	fees.Get("/:id/receipt", h.Fee.DownloadReceipt)
	fees.Post("/:id/remind", h.Fee.SendReminder)

	conversations := tenant("/conversations")
	conversations.Get("/", h.Conversation.ListConversations)
	conversations.Get("/:id/messages", h.Conversation.ListMessages)
	conversations.Post("/:id/messages", h.Conversation.SendMessage)
	conversations.Post("/:id/pause", h.Conversation.PauseAI)
	conversations.Post("/:id/resume", h.Conversation.ResumeAI)

	tenant("/dashboard").Get("/", h.Dashboard.GetDashboard)

	// Super admin
	admin := api.Group("/admin", requireAuth, auth.RequireRole(auth.RoleSuperAdmin))
	admin.Get("/stats", h.Admin.GetStats)
	admin.Get("/institutes", h.Admin.ListInstitutes)
	admin.Post("/institutes", h.Admin.CreateInstitute)
	admin.Get("/institutes/:id", h.Admin.GetInstitute)
	admin.Post("/institutes/:id/suspend", h.Admin.SuspendInstitute)
	admin.Post("/institutes/:id/activate", h.Admin.ActivateInstitute)
	admin.Get("/invite-codes", h.Admin.ListInviteCodes)
	admin.Post("/invite-codes", h.Admin.CreateInviteCode)
	admin.Post("/invite-codes/:id/deactivate", h.Admin.DeactivateInviteCode)
	admin.Delete("/invite-codes/:id", h.Admin.DeleteInviteCode)
	admin.Get("/audit-logs", h.Admin.ListAuditLogs)
}
