package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/repositories"
	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// codeAlphabet leaves out characters that are easy to misread (0/O, 1/I)
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type InviteService struct {
	repo repositories.InviteCodeRepo
	now  func() time.Time
}

func NewInviteService(repo repositories.InviteCodeRepo) *InviteService {
	return &InviteService{repo: repo, now: time.Now}
}

// Validate reports whether a code can be used for signup right now
func (s *InviteService) Validate(code string) (*models.ValidateInviteResponse, error) {
	invite, err := s.repo.GetByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.ValidateInviteResponse{Valid: false, Reason: models.InviteReasonNotFound}, nil
		}
		return nil, fmt.Errorf("failed to load invite code: %w", err)
	}

	if reason := invite.Check(s.now()); reason != "" {
		return &models.ValidateInviteResponse{Valid: false, Reason: reason}, nil
	}
	return &models.ValidateInviteResponse{Valid: true}, nil
}

func (s *InviteService) Create(req *models.CreateInviteCodeRequest, createdBy *uuid.UUID) (*models.InviteCode, error) {
	code := repositories.NormalizeCode(req.Code)
	if code == "" {
		generated, err := GenerateInviteCode(8)
		if err != nil {
			return nil, err
		}
		code = generated
	}
	if req.MaxUses < 1 {
		req.MaxUses = 1
	}

	invite := &models.InviteCode{
		Code:        code,
		Description: strings.TrimSpace(req.Description),
		MaxUses:     req.MaxUses,
		IsActive:    true,
		CreatedBy:   createdBy,
	}

	if req.ExpiresAt != "" {
		expires, err := dateparse.ParseLocal(req.ExpiresAt)
		if err != nil {
			return nil, invalid("expires_at", "unrecognised date")
		}
		if !expires.After(s.now()) {
			return nil, invalid("expires_at", "must be in the future")
		}
		invite.ExpiresAt = &expires
	}

	if err := s.repo.Create(invite); err != nil {
		return nil, fmt.Errorf("failed to create invite code: %w", err)
	}

	log.Info().Str("code", invite.Code).Int("max_uses", invite.MaxUses).Msg("🎟️ Invite code created")
	return invite, nil
}

func (s *InviteService) List() ([]models.InviteCode, error) {
	return s.repo.List()
}

func (s *InviteService) Deactivate(id uuid.UUID) error {
	if err := s.repo.Deactivate(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInviteCodeNotFound
		}
		return err
	}
	return nil
}

func (s *InviteService) Delete(id uuid.UUID) error {
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInviteCodeNotFound
		}
		return err
	}
	return nil
}

// GenerateInviteCode returns a random upper-case code of length n
func GenerateInviteCode(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
