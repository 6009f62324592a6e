package handlers

import (
	"errors"

	"github.com/adwelink/ams-api/internal/core/auth"
	"github.com/adwelink/ams-api/internal/modules/ams/services"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// fail writes the JSON error for err. Errors the caller can act on keep
// their message; anything else is logged and replaced by msg.
func fail(c *fiber.Ctx, err error, msg string) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": verr.Error(),
			"field": verr.Field,
		})
	case errors.Is(err, services.ErrLostReasonRequired),
		errors.Is(err, services.ErrInviteInvalid),
		errors.Is(err, services.ErrInviteExpired),
		errors.Is(err, services.ErrWhatsAppNotConfigured):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInviteInactive),
		errors.Is(err, services.ErrInviteExhausted):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInstituteNotFound),
		errors.Is(err, services.ErrLeadNotFound),
		errors.Is(err, services.ErrCourseNotFound),
		errors.Is(err, services.ErrFeeNotFound),
		errors.Is(err, services.ErrConversationNotFound),
		errors.Is(err, services.ErrInviteCodeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrLeadExists), errors.Is(err, auth.ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrSendFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("❌ " + msg)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msg})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
