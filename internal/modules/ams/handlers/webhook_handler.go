package handlers

import (
	"github.com/adwelink/ams-api/internal/core/whatsapp"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// EventDispatcher queues webhook events for background processing.
// services.WebhookService satisfies it.
type EventDispatcher interface {
	Dispatch(payload *whatsapp.WebhookPayload) int
}

type WebhookHandler struct {
	dispatcher  EventDispatcher
	verifyToken string
	appSecret   string
}

// NewWebhookHandler creates the Meta webhook handler. With an empty
// appSecret the X-Hub-Signature-256 header is not checked.
func NewWebhookHandler(dispatcher EventDispatcher, verifyToken, appSecret string) *WebhookHandler {
	return &WebhookHandler{
		dispatcher:  dispatcher,
		verifyToken: verifyToken,
		appSecret:   appSecret,
	}
}

// Verify godoc
// @Summary WhatsApp webhook verification
// @Description Meta subscription handshake. Echoes hub.challenge when the verify token matches.
// @Tags Webhook
// @Produce plain
// @Param hub.mode query string true "subscribe"
// @Param hub.verify_token query string true "Verify token"
// @Param hub.challenge query string true "Challenge"
// @Success 200 {string} string
// @Failure 403 {object} map[string]interface{}
// @Router /webhooks/whatsapp [get]
func (h *WebhookHandler) Verify(c *fiber.Ctx) error {
	challenge, ok := whatsapp.VerifySubscription(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
		h.verifyToken,
	)
	if !ok {
		log.Warn().Str("mode", c.Query("hub.mode")).Msg("⚠️ Webhook verification rejected")
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "verification failed",
		})
	}

	log.Info().Msg("✅ Webhook verified")
	return c.SendString(challenge)
}

// Receive godoc
// @Summary WhatsApp webhook receiver
// @Description Receives Meta Cloud API events. Messages and statuses are processed in the background.
// @Tags Webhook
// @Accept json
// @Produce json
// @Param payload body whatsapp.WebhookPayload true "Webhook payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /webhooks/whatsapp [post]
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	body := c.Body()

	if h.appSecret != "" && !whatsapp.ValidSignature(h.appSecret, body, c.Get("X-Hub-Signature-256")) {
		log.Warn().Str("ip", c.IP()).Msg("⚠️ Webhook signature mismatch")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid signature",
		})
	}

	var payload whatsapp.WebhookPayload
	if err := c.App().Config().JSONDecoder(body, &payload); err != nil {
		log.Warn().Err(err).Msg("❌ Failed to parse webhook")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid payload",
		})
	}

	queued := h.dispatcher.Dispatch(&payload)
	if queued > 0 {
		log.Debug().Int("events", queued).Msg("📨 Webhook events queued")
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
