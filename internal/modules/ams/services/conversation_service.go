package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/repositories"
	"github.com/adwelink/ams-api/internal/shared/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const previewLength = 120

type ConversationService struct {
	conversations repositories.ConversationRepo
	messages      repositories.MessageRepo
	institutes    *InstituteService
	now           func() time.Time
}

func NewConversationService(conversations repositories.ConversationRepo, messages repositories.MessageRepo, institutes *InstituteService) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		institutes:    institutes,
		now:           time.Now,
	}
}

func (s *ConversationService) List(filter models.ConversationFilter) (*models.ConversationListResponse, error) {
	convs, total, err := s.conversations.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	page, size, _ := repositories.Paginate(filter.Page, filter.PageSize)
	return &models.ConversationListResponse{
		Conversations: convs,
		Total:         total,
		Page:          page,
		PageSize:      size,
		TotalPages:    repositories.TotalPages(total, size),
	}, nil
}

func (s *ConversationService) Get(instituteID, id uuid.UUID) (*models.Conversation, error) {
	conv, err := s.conversations.GetByID(instituteID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return conv, nil
}

// Messages returns a page of the thread and clears its unread counter
func (s *ConversationService) Messages(instituteID, id uuid.UUID, limit int, before *time.Time) ([]models.Message, error) {
	conv, err := s.Get(instituteID, id)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	msgs, err := s.messages.List(conv.ID, limit, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if conv.UnreadCount > 0 {
		if err := s.conversations.MarkRead(conv.ID); err != nil {
			log.Warn().Err(err).Str("conversation_id", conv.ID.String()).Msg("⚠️ Failed to reset unread count")
		}
	}
	return msgs, nil
}

// Reply sends a message typed by a console user. The AI stays paused on
// the conversation until someone resumes it.
func (s *ConversationService) Reply(ctx context.Context, instituteID, id uuid.UUID, userID *uuid.UUID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, invalid("body", "is required")
	}
	conv, err := s.Get(instituteID, id)
	if err != nil {
		return nil, err
	}
	institute, err := s.institutes.Get(instituteID)
	if err != nil {
		return nil, err
	}

	if !conv.AIPaused {
		if err := s.conversations.SetPaused(instituteID, id, true); err != nil {
			return nil, fmt.Errorf("failed to pause ai: %w", err)
		}
		conv.AIPaused = true
	}

	return s.deliver(ctx, institute, conv, models.SenderHuman, userID, body)
}

func (s *ConversationService) Pause(instituteID, id uuid.UUID) (*models.Conversation, error) {
	return s.setPaused(instituteID, id, true)
}

func (s *ConversationService) Resume(instituteID, id uuid.UUID) (*models.Conversation, error) {
	return s.setPaused(instituteID, id, false)
}

func (s *ConversationService) setPaused(instituteID, id uuid.UUID, paused bool) (*models.Conversation, error) {
	if err := s.conversations.SetPaused(instituteID, id, paused); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return s.Get(instituteID, id)
}

// SendToContact sends body to phone, opening a conversation if needed.
// Used for fee reminders.
func (s *ConversationService) SendToContact(ctx context.Context, institute *models.Institute, phone, name, sender string, userID *uuid.UUID, body string) (*models.Message, error) {
	phone = utils.NormalizePhone(phone)
	if phone == "" {
		return nil, invalid("phone", "is required")
	}
	conv, err := s.conversations.GetOrCreate(institute.ID, phone, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation: %w", err)
	}
	return s.deliver(ctx, institute, conv, sender, userID, body)
}

// deliver stores the outbound message first so a failed send is still
// visible in the thread, then sends it and records the result.
func (s *ConversationService) deliver(ctx context.Context, institute *models.Institute, conv *models.Conversation, sender string, userID *uuid.UUID, body string) (*models.Message, error) {
	client, err := s.institutes.Sender(institute)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		InstituteID:    institute.ID,
		Direction:      models.DirectionOutbound,
		Sender:         sender,
		SenderUserID:   userID,
		Recipient:      conv.ContactPhone,
		Body:           body,
		Status:         models.MessageStatusPending,
	}
	if _, err := s.messages.Create(msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	waID, sendErr := client.SendText(ctx, conv.ContactPhone, body)
	if sendErr != nil {
		msg.Status = models.MessageStatusFailed
		msg.ErrorMessage = sendErr.Error()
		if err := s.messages.SetDelivery(msg.ID, nil, msg.Status, msg.ErrorMessage); err != nil {
			log.Error().Err(err).Str("message_id", msg.ID.String()).Msg("❌ Failed to record send failure")
		}
		return msg, fmt.Errorf("%w: %v", ErrSendFailed, sendErr)
	}

	msg.WAMessageID = &waID
	msg.Status = models.MessageStatusSent
	if err := s.messages.SetDelivery(msg.ID, msg.WAMessageID, msg.Status, ""); err != nil {
		log.Error().Err(err).Str("message_id", msg.ID.String()).Msg("❌ Failed to record wa_message_id")
	}
	if err := s.conversations.RecordOutbound(conv.ID, preview(body), s.now()); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to update conversation preview")
	}
	return msg, nil
}

func preview(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	r := []rune(body)
	if len(r) <= previewLength {
		return body
	}
	return string(r[:previewLength-1]) + "…"
}
