package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adwelink/ams-api/internal/core/tenant"
	"github.com/adwelink/ams-api/internal/core/whatsapp"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/repositories"
	"github.com/adwelink/ams-api/internal/shared/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

type InstituteService struct {
	repo     repositories.InstituteRepo
	resolver *tenant.Resolver[*models.Institute]
	senders  whatsapp.ClientFactory
}

func NewInstituteService(repo repositories.InstituteRepo, senders whatsapp.ClientFactory) *InstituteService {
	s := &InstituteService{repo: repo, senders: senders}
	s.resolver = tenant.NewResolver(s.lookupByPhoneNumberID, time.Minute)
	return s
}

func (s *InstituteService) lookupByPhoneNumberID(phoneNumberID string) (*models.Institute, error) {
	institute, err := s.repo.GetByPhoneNumberID(phoneNumberID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, tenant.ErrUnknownTenant
	}
	return institute, err
}

// ResolveByPhoneNumberID maps an inbound webhook to its institute
func (s *InstituteService) ResolveByPhoneNumberID(phoneNumberID string) (*models.Institute, error) {
	return s.resolver.ResolveByPhoneNumberID(phoneNumberID)
}

func (s *InstituteService) Get(id uuid.UUID) (*models.Institute, error) {
	institute, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstituteNotFound
		}
		return nil, err
	}
	return institute, nil
}

func (s *InstituteService) Update(id uuid.UUID, req *models.UpdateInstituteRequest) (*models.Institute, error) {
	fields := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalid("name", "cannot be empty")
		}
		fields["name"] = name
	}
	if req.Email != nil {
		fields["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		fields["phone"] = utils.NormalizePhone(*req.Phone)
	}
	if req.City != nil {
		fields["city"] = strings.TrimSpace(*req.City)
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, invalid("timezone", "unknown time zone")
		}
		fields["timezone"] = *req.Timezone
	}
	if len(fields) > 0 {
		if err := s.update(id, fields); err != nil {
			return nil, err
		}
	}
	return s.Get(id)
}

// SetWhatsApp stores Cloud API credentials. The access token is kept when
// the request leaves it blank.
func (s *InstituteService) SetWhatsApp(id uuid.UUID, req *models.WhatsAppSettingsRequest) (*models.Institute, error) {
	current, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	phoneNumberID := strings.TrimSpace(req.PhoneNumberID)
	if phoneNumberID == "" {
		return nil, invalid("phone_number_id", "is required")
	}
	if other, err := s.repo.GetByPhoneNumberID(phoneNumberID); err == nil && other.ID != id {
		return nil, invalid("phone_number_id", "is already connected to another institute")
	}

	fields := map[string]interface{}{
		"wa_phone_number_id":     phoneNumberID,
		"wa_business_account_id": strings.TrimSpace(req.BusinessAccountID),
		"wa_display_number":      utils.NormalizePhone(req.DisplayNumber),
	}
	if token := strings.TrimSpace(req.AccessToken); token != "" {
		fields["wa_access_token"] = token
	} else if current.WAAccessToken == "" {
		return nil, invalid("access_token", "is required")
	}

	if err := s.update(id, fields); err != nil {
		return nil, err
	}
	s.resolver.Invalidate(current.WAPhoneNumberID)
	s.resolver.Invalidate(phoneNumberID)

	log.Info().Str("institute_id", id.String()).Str("phone_number_id", phoneNumberID).Msg("📱 WhatsApp connected")
	return s.Get(id)
}

func (s *InstituteService) SetAI(id uuid.UUID, req *models.AISettingsRequest) (*models.Institute, error) {
	institute, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.update(id, map[string]interface{}{
		"ai_enabled": req.Enabled,
		"ai_persona": strings.TrimSpace(req.Persona),
	}); err != nil {
		return nil, err
	}
	s.resolver.Invalidate(institute.WAPhoneNumberID)
	return s.Get(id)
}

// QRCode renders a PNG that opens a WhatsApp chat with the institute
func (s *InstituteService) QRCode(id uuid.UUID, size int) ([]byte, error) {
	institute, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if institute.WADisplayNumber == "" {
		return nil, ErrWhatsAppNotConfigured
	}
	if size < 128 || size > 1024 {
		size = 256
	}
	return qrcode.Encode(WhatsAppLink(institute.WADisplayNumber), qrcode.Medium, size)
}

// WhatsAppLink is the click-to-chat URL of a number
func WhatsAppLink(displayNumber string) string {
	return "https://wa.me/" + utils.NormalizePhone(displayNumber)
}

// Sender builds a Cloud API client from the institute's credentials
func (s *InstituteService) Sender(institute *models.Institute) (whatsapp.Sender, error) {
	if !institute.HasWhatsApp() {
		return nil, ErrWhatsAppNotConfigured
	}
	return s.senders(whatsapp.Credentials{
		PhoneNumberID: institute.WAPhoneNumberID,
		AccessToken:   institute.WAAccessToken,
	})
}

// SendTest sends a message to check the configured credentials
func (s *InstituteService) SendTest(ctx context.Context, id uuid.UUID, req *models.TestMessageRequest) (string, error) {
	to := utils.NormalizePhone(req.To)
	if to == "" {
		return "", invalid("to", "is required")
	}
	institute, err := s.Get(id)
	if err != nil {
		return "", err
	}
	sender, err := s.Sender(institute)
	if err != nil {
		return "", err
	}

	body := strings.TrimSpace(req.Message)
	if body == "" {
		body = fmt.Sprintf("Test message from %s. WhatsApp is connected.", institute.Name)
	}
	waID, err := sender.SendText(ctx, to, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return waID, nil
}

func (s *InstituteService) List(filter models.InstituteFilter) (*models.InstituteListResponse, error) {
	institutes, total, err := s.repo.List(filter)
	if err != nil {
		return nil, err
	}
	page, size, _ := repositories.Paginate(filter.Page, filter.PageSize)
	return &models.InstituteListResponse{
		Institutes: institutes,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: repositories.TotalPages(total, size),
	}, nil
}

func (s *InstituteService) Detail(id uuid.UUID) (*models.InstituteDetail, error) {
	detail, err := s.repo.Detail(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstituteNotFound
		}
		return nil, err
	}
	return detail, nil
}

func (s *InstituteService) Suspend(id uuid.UUID) (*models.Institute, error) {
	return s.setStatus(id, models.InstituteStatusSuspended)
}

func (s *InstituteService) Activate(id uuid.UUID) (*models.Institute, error) {
	return s.setStatus(id, models.InstituteStatusActive)
}

func (s *InstituteService) setStatus(id uuid.UUID, status string) (*models.Institute, error) {
	institute, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(id, status); err != nil {
		return nil, err
	}
	s.resolver.Invalidate(institute.WAPhoneNumberID)
	institute.Status = status

	log.Info().Str("institute_id", id.String()).Str("status", status).Msg("🏫 Institute status changed")
	return institute, nil
}

func (s *InstituteService) update(id uuid.UUID, fields map[string]interface{}) error {
	if err := s.repo.Update(id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInstituteNotFound
		}
		return fmt.Errorf("failed to update institute: %w", err)
	}
	return nil
}
