package handlers

import (
	"github.com/adwelink/ams-api/internal/core/audit"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type OnboardingHandler struct {
	onboarding *services.OnboardingService
	invites    *services.InviteService
	audit      *audit.Service
}

func NewOnboardingHandler(onboarding *services.OnboardingService, invites *services.InviteService, auditSvc *audit.Service) *OnboardingHandler {
	return &OnboardingHandler{
		onboarding: onboarding,
		invites:    invites,
		audit:      auditSvc,
	}
}

// ValidateInvite godoc
// @Summary Check an invite code
// @Description Reports whether an invite code can be used to sign up
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.ValidateInviteRequest true "Invite code"
// @Success 200 {object} models.ValidateInviteResponse
// @Failure 400 {object} map[string]interface{}
// @Router /auth/invite-codes/validate [post]
func (h *OnboardingHandler) ValidateInvite(c *fiber.Ctx) error {
	var req models.ValidateInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Code == "" {
		return badRequest(c, "code is required")
	}

	resp, err := h.invites.Validate(req.Code)
	if err != nil {
		return fail(c, err, "Failed to validate invite code")
	}
	return c.JSON(resp)
}

// Signup godoc
// @Summary Sign up a new institute
// @Description Creates the institute and its admin account with a valid invite code and returns tokens
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.SignupRequest true "Signup details"
// @Success 201 {object} auth.AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /auth/signup [post]
func (h *OnboardingHandler) Signup(c *fiber.Ctx) error {
	var req models.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.onboarding.Signup(c.UserContext(), &req)
	if err != nil {
		return fail(c, err, "Signup failed")
	}

	if h.audit != nil && resp.User != nil && resp.Institute != nil {
		actor := audit.Actor{IPAddress: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
		if id, err := uuid.Parse(resp.User.ID); err == nil {
			actor.UserID = &id
		}
		if id, err := uuid.Parse(resp.Institute.ID); err == nil {
			actor.InstituteID = &id
		}
		h.audit.LogAction(c.UserContext(), actor, audit.ActionSignup, "institute", resp.Institute.ID, "invite "+req.InviteCode)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}
