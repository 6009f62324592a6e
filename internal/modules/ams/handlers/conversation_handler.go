package handlers

import (
	"strings"

	"github.com/adwelink/ams-api/internal/core/audit"
	"github.com/adwelink/ams-api/internal/core/auth"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/services"
	"github.com/gofiber/fiber/v2"
)

type ConversationHandler struct {
	conversations *services.ConversationService
	audit         *audit.Service
}

func NewConversationHandler(conversations *services.ConversationService, auditSvc *audit.Service) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, audit: auditSvc}
}

// ListConversations godoc
// @Summary List WhatsApp conversations
// @Description Most recent activity first
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param search query string false "Contact name or phone"
// @Param paused query boolean false "Filter by AI paused"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} models.ConversationListResponse
// @Router /conversations [get]
func (h *ConversationHandler) ListConversations(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	resp, err := h.conversations.List(models.ConversationFilter{
		InstituteID: instituteID,
		Search:      strings.TrimSpace(c.Query("search")),
		Paused:      queryBool(c, "paused"),
		Page:        c.QueryInt("page", 1),
		PageSize:    c.QueryInt("page_size", 20),
	})
	if err != nil {
		return fail(c, err, "Failed to list conversations")
	}
	return c.JSON(resp)
}

// ListMessages godoc
// @Summary Messages of a conversation
// @Description Oldest first. Pass before to page back through history. Marks the conversation read.
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param limit query int false "Max messages" default(50)
// @Param before query string false "Only messages created before this time"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /conversations/{id}/messages [get]
func (h *ConversationHandler) ListMessages(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid conversation id")
	}
	before, ok := queryTime(c, "before")
	if !ok {
		return badRequest(c, "Invalid before time")
	}

	messages, err := h.conversations.Messages(instituteID, id, c.QueryInt("limit", 50), before)
	if err != nil {
		return fail(c, err, "Failed to load messages")
	}
	return c.JSON(fiber.Map{
		"messages": messages,
		"total":    len(messages),
	})
}

// SendMessage godoc
// @Summary Reply as a human
// @Description Sends the message on WhatsApp and pauses the AI for this conversation
// @Tags Conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param request body models.SendMessageRequest true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /conversations/{id}/messages [post]
func (h *ConversationHandler) SendMessage(c *fiber.Ctx) error {
	instituteID, userID, err := tenant(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid conversation id")
	}

	var req models.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	msg, err := h.conversations.Reply(c.UserContext(), instituteID, id, userID, req.Body)
	if err != nil {
		return fail(c, err, "Failed to send message")
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// PauseAI godoc
// @Summary Stop AI replies in a conversation
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} models.Conversation
// @Failure 404 {object} map[string]interface{}
// @Router /conversations/{id}/pause [post]
func (h *ConversationHandler) PauseAI(c *fiber.Ctx) error {
	return h.setPaused(c, true)
}

// ResumeAI godoc
// @Summary Hand a conversation back to the AI
// @Tags Conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} models.Conversation
// @Failure 404 {object} map[string]interface{}
// @Router /conversations/{id}/resume [post]
func (h *ConversationHandler) ResumeAI(c *fiber.Ctx) error {
	return h.setPaused(c, false)
}

func (h *ConversationHandler) setPaused(c *fiber.Ctx, paused bool) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid conversation id")
	}

	var conv *models.Conversation
	action := audit.ActionAIPause
	if paused {
		conv, err = h.conversations.Pause(instituteID, id)
	} else {
		action = audit.ActionAIResume
		conv, err = h.conversations.Resume(instituteID, id)
	}
	if err != nil {
		return fail(c, err, "Failed to update conversation")
	}

	if h.audit != nil {
		h.audit.LogAction(c.UserContext(), auth.ActorFromCtx(c), action, "conversation", id.String(), "")
	}
	return c.JSON(conv)
}
