package handlers

import (
	"strings"

	"github.com/adwelink/ams-api/internal/core/audit"
	"github.com/adwelink/ams-api/internal/core/auth"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/services"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves the super-admin console
type AdminHandler struct {
	institutes *services.InstituteService
	onboarding *services.OnboardingService
	invites    *services.InviteService
	dashboard  *services.DashboardService
	audit      *audit.Service
}

func NewAdminHandler(
	institutes *services.InstituteService,
	onboarding *services.OnboardingService,
	invites *services.InviteService,
	dashboard *services.DashboardService,
	auditSvc *audit.Service,
) *AdminHandler {
	return &AdminHandler{
		institutes: institutes,
		onboarding: onboarding,
		invites:    invites,
		dashboard:  dashboard,
		audit:      auditSvc,
	}
}

// GetStats godoc
// @Summary Platform statistics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.PlatformStats
// @Router /admin/stats [get]
func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.dashboard.Platform(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to load platform statistics")
	}
	return c.JSON(stats)
}

// ListInstitutes godoc
// @Summary List institutes
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name, slug, email or city"
// @Param status query string false "active or suspended"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} models.InstituteListResponse
// @Router /admin/institutes [get]
func (h *AdminHandler) ListInstitutes(c *fiber.Ctx) error {
	resp, err := h.institutes.List(models.InstituteFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Status:   c.Query("status"),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	})
	if err != nil {
		return fail(c, err, "Failed to list institutes")
	}
	return c.JSON(resp)
}

// CreateInstitute godoc
// @Summary Provision an institute
// @Description Creates an institute and its first admin without an invite code
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ProvisionInstituteRequest true "Institute and admin"
// @Success 201 {object} models.Institute
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /admin/institutes [post]
func (h *AdminHandler) CreateInstitute(c *fiber.Ctx) error {
	var req models.ProvisionInstituteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	institute, err := h.onboarding.Provision(&req)
	if err != nil {
		return fail(c, err, "Failed to create institute")
	}

	if h.audit != nil {
		h.audit.LogChange(c.UserContext(), auth.ActorFromCtx(c), audit.ActionCreate, "institute", institute.ID.String(), nil, institute)
	}
	return c.Status(fiber.StatusCreated).JSON(institute)
}

// GetInstitute godoc
// @Summary Institute detail with usage counts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Institute ID"
// @Success 200 {object} models.InstituteDetail
// @Failure 404 {object} map[string]interface{}
// @Router /admin/institutes/{id} [get]
func (h *AdminHandler) GetInstitute(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid institute id")
	}

	detail, err := h.institutes.Detail(id)
	if err != nil {
		return fail(c, err, "Failed to load institute")
	}
	return c.JSON(detail)
}

// SuspendInstitute godoc
// @Summary Suspend an institute
// @Description Users can no longer log in and the AI stops replying
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Institute ID"
// @Success 200 {object} models.Institute
// @Failure 404 {object} map[string]interface{}
// @Router /admin/institutes/{id}/suspend [post]
func (h *AdminHandler) SuspendInstitute(c *fiber.Ctx) error {
	return h.setStatus(c, true)
}

// ActivateInstitute godoc
// @Summary Re-activate an institute
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Institute ID"
// @Success 200 {object} models.Institute
// @Failure 404 {object} map[string]interface{}
// @Router /admin/institutes/{id}/activate [post]
func (h *AdminHandler) ActivateInstitute(c *fiber.Ctx) error {
	return h.setStatus(c, false)
}

func (h *AdminHandler) setStatus(c *fiber.Ctx, suspend bool) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid institute id")
	}

	var (
		institute *models.Institute
		err       error
	)
	action := audit.ActionActivate
	if suspend {
		action = audit.ActionSuspend
		institute, err = h.institutes.Suspend(id)
	} else {
		institute, err = h.institutes.Activate(id)
	}
	if err != nil {
		return fail(c, err, "Failed to change institute status")
	}

	if h.audit != nil {
		h.audit.LogAction(c.UserContext(), auth.ActorFromCtx(c), action, "institute", id.String(), institute.Name)
	}
	return c.JSON(institute)
}

// ListInviteCodes godoc
// @Summary List invite codes
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /admin/invite-codes [get]
func (h *AdminHandler) ListInviteCodes(c *fiber.Ctx) error {
	codes, err := h.invites.List()
	if err != nil {
		return fail(c, err, "Failed to list invite codes")
	}
	return c.JSON(fiber.Map{
		"invite_codes": codes,
		"total":        len(codes),
	})
}

// CreateInviteCode godoc
// @Summary Create an invite code
// @Description A blank code is generated. max_uses defaults to 1.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateInviteCodeRequest true "Invite code"
// @Success 201 {object} models.InviteCode
// @Failure 400 {object} map[string]interface{}
// @Router /admin/invite-codes [post]
func (h *AdminHandler) CreateInviteCode(c *fiber.Ctx) error {
	var req models.CreateInviteCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	invite, err := h.invites.Create(&req, auth.ActorFromCtx(c).UserID)
	if err != nil {
		return fail(c, err, "Failed to create invite code")
	}

	if h.audit != nil {
		h.audit.LogChange(c.UserContext(), auth.ActorFromCtx(c), audit.ActionCreate, "invite_code", invite.ID.String(), nil, invite)
	}
	return c.Status(fiber.StatusCreated).JSON(invite)
}

// DeactivateInviteCode godoc
// @Summary Deactivate an invite code
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invite code ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /admin/invite-codes/{id}/deactivate [post]
func (h *AdminHandler) DeactivateInviteCode(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid invite code id")
	}

	if err := h.invites.Deactivate(id); err != nil {
		return fail(c, err, "Failed to deactivate invite code")
	}

	if h.audit != nil {
		h.audit.LogAction(c.UserContext(), auth.ActorFromCtx(c), audit.ActionDeactivate, "invite_code", id.String(), "")
	}
	return c.JSON(fiber.Map{"message": "Invite code deactivated"})
}

// DeleteInviteCode godoc
// @Summary Delete an invite code
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invite code ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /admin/invite-codes/{id} [delete]
func (h *AdminHandler) DeleteInviteCode(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid invite code id")
	}

	if err := h.invites.Delete(id); err != nil {
		return fail(c, err, "Failed to delete invite code")
	}

	if h.audit != nil {
		h.audit.LogAction(c.UserContext(), auth.ActorFromCtx(c), audit.ActionDelete, "invite_code", id.String(), "")
	}
	return c.JSON(fiber.Map{"message": "Invite code deleted"})
}

// ListAuditLogs godoc
// @Summary Audit trail
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param institute_id query string false "Institute ID"
// @Param user_id query string false "User ID"
// @Param action query string false "Action"
// @Param entity_type query string false "Entity type"
// @Param entity_id query string false "Entity ID"
// @Param start_date query string false "From"
// @Param end_date query string false "To"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(50)
// @Success 200 {object} audit.AuditLogResponse
// @Failure 400 {object} map[string]interface{}
// @Router /admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	if h.audit == nil {
		return c.JSON(audit.AuditLogResponse{Logs: []audit.AuditLog{}})
	}

	filter := audit.AuditFilter{
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Page:       c.QueryInt("page", 1),
		PageSize:   c.QueryInt("page_size", 50),
	}
	var ok bool
	if filter.InstituteID, ok = queryUUID(c, "institute_id"); !ok {
		return badRequest(c, "Invalid institute_id")
	}
	if filter.UserID, ok = queryUUID(c, "user_id"); !ok {
		return badRequest(c, "Invalid user_id")
	}
	if filter.StartDate, ok = queryTime(c, "start_date"); !ok {
		return badRequest(c, "Invalid start_date")
	}
	if filter.EndDate, ok = queryTime(c, "end_date"); !ok {
		return badRequest(c, "Invalid end_date")
	}

	logs, err := h.audit.GetLogs(filter)
	if err != nil {
		return fail(c, err, "Failed to load audit logs")
	}
	return c.JSON(logs)
}
