package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/adwelink/ams-api/internal/core/llm"
	"github.com/adwelink/ams-api/internal/core/tenant"
	"github.com/adwelink/ams-api/internal/core/whatsapp"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/repositories"
	"github.com/adwelink/ams-api/internal/shared/utils"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// FallbackReply is sent when the AI provider fails
const FallbackReply = "Thanks for your message! A counsellor from our team will get back to you shortly."

const (
	historyTurns      = 12
	processingTimeout = 90 * time.Second
)

// Responder generates the agent's reply. llm.Service satisfies it.
type Responder interface {
	GenerateResponse(ctx context.Context, systemPrompt string, turns []llm.Turn) (string, error)
}

// WebhookService turns Meta webhook events into stored messages, leads and
// AI replies. Events are processed on a bounded worker pool so the HTTP
// handler can acknowledge immediately.
type WebhookService struct {
	institutes    *InstituteService
	leads         *LeadService
	courses       repositories.CourseRepo
	conversations repositories.ConversationRepo
	messages      repositories.MessageRepo
	convSvc       *ConversationService
	ai            Responder

	pool *ants.Pool
	wg   sync.WaitGroup
}

func NewWebhookService(
	institutes *InstituteService,
	leads *LeadService,
	courses repositories.CourseRepo,
	conversations repositories.ConversationRepo,
	messages repositories.MessageRepo,
	convSvc *ConversationService,
	ai Responder,
	workers int,
) (*WebhookService, error) {
	if workers < 1 {
		workers = 10
	}
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p interface{}) {
		log.Error().Interface("panic", p).Msg("❌ Webhook worker panicked")
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook worker pool: %w", err)
	}

	return &WebhookService{
		institutes:    institutes,
		leads:         leads,
		courses:       courses,
		conversations: conversations,
		messages:      messages,
		convSvc:       convSvc,
		ai:            ai,
		pool:          pool,
	}, nil
}

// Dispatch queues every message and status of a payload. It returns the
// number of queued events.
func (s *WebhookService) Dispatch(payload *whatsapp.WebhookPayload) int {
	queued := 0
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "" && change.Field != "messages" {
				continue
			}
			value := change.Value
			phoneNumberID := value.Metadata.PhoneNumberID

			for _, msg := range value.Messages {
				msg := msg
				name := value.ContactName(msg.From)
				s.submit(func(ctx context.Context) {
					if err := s.ProcessInbound(ctx, phoneNumberID, msg, name); err != nil {
						log.Error().Err(err).Str("wa_message_id", msg.ID).Msg("❌ Failed to process inbound message")
					}
				})
				queued++
			}
			for _, st := range value.Statuses {
				st := st
				s.submit(func(ctx context.Context) {
					if err := s.ProcessStatus(phoneNumberID, st); err != nil {
						log.Error().Err(err).Str("wa_message_id", st.ID).Msg("❌ Failed to apply status update")
					}
				})
				queued++
			}
		}
	}
	return queued
}

func (s *WebhookService) submit(task func(ctx context.Context)) {
	s.wg.Add(1)
	err := s.pool.Submit(func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), processingTimeout)
		defer cancel()
		task(ctx)
	})
	if err != nil {
		s.wg.Done()
		log.Error().Err(err).Msg("❌ Webhook pool rejected task")
	}
}

// Wait blocks until queued events are processed
func (s *WebhookService) Wait() {
	s.wg.Wait()
}

// Close drains the queue and releases the pool
func (s *WebhookService) Close() {
	s.wg.Wait()
	s.pool.Release()
}

// ProcessInbound stores one customer message and, when the institute and
// conversation allow it, answers with the AI agent.
func (s *WebhookService) ProcessInbound(ctx context.Context, phoneNumberID string, in whatsapp.InboundMessage, contactName string) error {
	institute, err := s.institutes.ResolveByPhoneNumberID(phoneNumberID)
	if err != nil {
		if errors.Is(err, tenant.ErrUnknownTenant) {
			log.Warn().Str("phone_number_id", phoneNumberID).Msg("⚠️ Message for unknown phone number id dropped")
			return nil
		}
		return fmt.Errorf("failed to resolve institute: %w", err)
	}

	phone := utils.NormalizePhone(in.From)
	conv, err := s.conversations.GetOrCreate(institute.ID, phone, contactName)
	if err != nil {
		return fmt.Errorf("failed to open conversation: %w", err)
	}

	if conv.LeadID == nil {
		lead, _, err := s.leads.CaptureFromWhatsApp(institute.ID, phone, contactName)
		if err != nil {
			log.Error().Err(err).Str("phone", phone).Msg("❌ Failed to capture lead")
		} else if err := s.conversations.SetLead(conv.ID, lead.ID); err != nil {
			log.Warn().Err(err).Msg("⚠️ Failed to link lead to conversation")
		} else {
			conv.LeadID = &lead.ID
		}
	} else {
		s.leads.TouchContacted(*conv.LeadID)
	}

	raw, _ := json.Marshal(in)
	waID := in.ID
	msg := &models.Message{
		ConversationID: conv.ID,
		InstituteID:    institute.ID,
		Direction:      models.DirectionInbound,
		Sender:         models.SenderCustomer,
		Body:           in.Content(),
		WAMessageID:    &waID,
		Status:         models.MessageStatusReceived,
		Raw:            datatypes.JSON(raw),
		CreatedAt:      in.SentAt(),
	}
	created, err := s.messages.Create(msg)
	if err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	if !created {
		log.Debug().Str("wa_message_id", in.ID).Msg("🔁 Duplicate delivery ignored")
		return nil
	}
	if err := s.conversations.RecordInbound(conv.ID, preview(msg.Body), msg.CreatedAt); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to update conversation preview")
	}

	log.Info().
		Str("institute_id", institute.ID.String()).
		Str("conversation_id", conv.ID.String()).
		Str("type", in.Type).
		Msg("📨 Inbound message stored")

	switch {
	case institute.IsSuspended():
		log.Info().Str("institute_id", institute.ID.String()).Msg("⏸️ Institute suspended, no reply")
		return nil
	case !institute.AIEnabled || s.ai == nil:
		return nil
	case conv.AIPaused:
		log.Debug().Str("conversation_id", conv.ID.String()).Msg("⏸️ AI paused, human has control")
		return nil
	case !in.IsText():
		return nil
	}

	return s.reply(ctx, institute, conv, in.ID)
}

func (s *WebhookService) reply(ctx context.Context, institute *models.Institute, conv *models.Conversation, inboundID string) error {
	prompt, err := s.systemPrompt(institute)
	if err != nil {
		return err
	}

	history, err := s.messages.Recent(conv.ID, historyTurns)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	answer, err := s.ai.GenerateResponse(ctx, prompt, toTurns(history))
	if err != nil {
		log.Error().Err(err).Str("conversation_id", conv.ID.String()).Msg("❌ AI reply failed, sending fallback")
		answer = FallbackReply
	}

	// a console user may have taken over while the model was thinking
	current, err := s.conversations.GetByID(institute.ID, conv.ID)
	if err != nil {
		return fmt.Errorf("failed to reload conversation: %w", err)
	}
	if current.AIPaused {
		log.Info().Str("conversation_id", conv.ID.String()).Msg("⏸️ AI paused during generation, reply discarded")
		return nil
	}

	if _, err := s.convSvc.deliver(ctx, institute, current, models.SenderAI, nil, answer); err != nil {
		return err
	}

	if sender, err := s.institutes.Sender(institute); err == nil {
		if err := sender.MarkAsRead(ctx, inboundID); err != nil {
			log.Debug().Err(err).Msg("mark as read failed")
		}
	}
	return nil
}

func (s *WebhookService) systemPrompt(institute *models.Institute) (string, error) {
	courses, err := s.courses.List(institute.ID, true)
	if err != nil {
		return "", fmt.Errorf("failed to load courses: %w", err)
	}

	profile := &llm.InstituteProfile{
		Name:         institute.Name,
		City:         institute.City,
		Persona:      institute.AIPersona,
		ContactPhone: institute.Phone,
	}
	for _, c := range courses {
		profile.Courses = append(profile.Courses, llm.CourseInfo{
			Name:          c.Name,
			Description:   c.Description,
			DurationWeeks: c.DurationWeeks,
			Fee:           c.Fee,
		})
	}
	return llm.BuildSystemPrompt(profile), nil
}

func toTurns(history []models.Message) []llm.Turn {
	turns := make([]llm.Turn, 0, len(history))
	for _, m := range history {
		if m.Status == models.MessageStatusFailed {
			continue
		}
		role := llm.RoleUser
		if m.Direction == models.DirectionOutbound {
			role = llm.RoleAssistant
		}
		turns = append(turns, llm.Turn{Role: role, Content: m.Body})
	}
	return turns
}

// ProcessStatus applies a delivery receipt to the outbound message it
// belongs to
func (s *WebhookService) ProcessStatus(phoneNumberID string, st whatsapp.StatusUpdate) error {
	institute, err := s.institutes.ResolveByPhoneNumberID(phoneNumberID)
	if err != nil {
		if errors.Is(err, tenant.ErrUnknownTenant) {
			return nil
		}
		return fmt.Errorf("failed to resolve institute: %w", err)
	}

	found, err := s.messages.ApplyStatus(institute.ID, st.ID, utils.NormalizePhone(st.RecipientID), st.Status, st.ErrorText())
	if err != nil {
		return err
	}
	if !found {
		log.Debug().Str("wa_message_id", st.ID).Str("status", st.Status).Msg("status for unknown message")
	}
	return nil
}
