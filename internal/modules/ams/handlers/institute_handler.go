package handlers

import (
	"github.com/adwelink/ams-api/internal/core/audit"
	"github.com/adwelink/ams-api/internal/core/auth"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/services"
	"github.com/gofiber/fiber/v2"
)

type InstituteHandler struct {
	institutes *services.InstituteService
	audit      *audit.Service
}

func NewInstituteHandler(institutes *services.InstituteService, auditSvc *audit.Service) *InstituteHandler {
	return &InstituteHandler{institutes: institutes, audit: auditSvc}
}

// GetInstitute godoc
// @Summary Get the current institute
// @Tags Institute
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Institute
// @Failure 404 {object} map[string]interface{}
// @Router /institute [get]
func (h *InstituteHandler) GetInstitute(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	institute, err := h.institutes.Get(instituteID)
	if err != nil {
		return fail(c, err, "Failed to load institute")
	}
	return c.JSON(institute)
}

// UpdateInstitute godoc
// @Summary Update institute profile
// @Tags Institute
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdateInstituteRequest true "Fields to change"
// @Success 200 {object} models.Institute
// @Failure 400 {object} map[string]interface{}
// @Router /institute [put]
func (h *InstituteHandler) UpdateInstitute(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	var req models.UpdateInstituteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	before, err := h.institutes.Get(instituteID)
	if err != nil {
		return fail(c, err, "Failed to load institute")
	}
	snapshot := *before

	institute, err := h.institutes.Update(instituteID, &req)
	if err != nil {
		return fail(c, err, "Failed to update institute")
	}

	if h.audit != nil {
		h.audit.LogChange(c.UserContext(), auth.ActorFromCtx(c), audit.ActionUpdate, "institute", instituteID.String(), snapshot, institute)
	}
	return c.JSON(institute)
}

// UpdateWhatsApp godoc
// @Summary Configure WhatsApp Cloud API credentials
// @Description Sets the phone number id, business account id and access token. A blank token keeps the stored one.
// @Tags Institute
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.WhatsAppSettingsRequest true "WhatsApp settings"
// @Success 200 {object} models.Institute
// @Failure 400 {object} map[string]interface{}
// @Router /institute/whatsapp [put]
func (h *InstituteHandler) UpdateWhatsApp(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	var req models.WhatsAppSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	institute, err := h.institutes.SetWhatsApp(instituteID, &req)
	if err != nil {
		return fail(c, err, "Failed to update WhatsApp settings")
	}

	if h.audit != nil {
		h.audit.LogAction(c.UserContext(), auth.ActorFromCtx(c), audit.ActionUpdate, "institute", instituteID.String(),
			"whatsapp phone_number_id "+institute.WAPhoneNumberID)
	}
	return c.JSON(institute)
}

// UpdateAI godoc
// @Summary Configure the AI assistant
// @Tags Institute
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.AISettingsRequest true "AI settings"
// @Success 200 {object} models.Institute
// @Router /institute/ai [put]
func (h *InstituteHandler) UpdateAI(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	var req models.AISettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	institute, err := h.institutes.SetAI(instituteID, &req)
	if err != nil {
		return fail(c, err, "Failed to update AI settings")
	}
	return c.JSON(institute)
}

// GetQRCode godoc
// @Summary WhatsApp QR code
// @Description PNG QR code that opens a chat with the institute's WhatsApp number
// @Tags Institute
// @Produce png
// @Security BearerAuth
// @Param size query int false "Image size in pixels" default(256)
// @Success 200 {file} binary
// @Failure 400 {object} map[string]interface{}
// @Router /institute/qr [get]
func (h *InstituteHandler) GetQRCode(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	png, err := h.institutes.QRCode(instituteID, c.QueryInt("size", 256))
	if err != nil {
		return fail(c, err, "Failed to generate QR code")
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

// SendTestMessage godoc
// @Summary Send a WhatsApp test message
// @Tags Institute
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.TestMessageRequest true "Recipient and optional text"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /institute/whatsapp/test [post]
func (h *InstituteHandler) SendTestMessage(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	var req models.TestMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	waID, err := h.institutes.SendTest(c.UserContext(), instituteID, &req)
	if err != nil {
		return fail(c, err, "Failed to send test message")
	}

	return c.JSON(fiber.Map{
		"message":       "Test message sent",
		"wa_message_id": waID,
	})
}
