package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InstituteStatusActive    = "active"
	InstituteStatusSuspended = "suspended"

	PlanPilot = "pilot"
)

// Institute is a tenant: a school or coaching centre with its own leads,
// courses and WhatsApp number.
type Institute struct {
	ID     uuid.UUID `gorm:"primaryKey" json:"id"`
	Name   string    `gorm:"not null" json:"name"`
	Slug   string    `gorm:"uniqueIndex;not null" json:"slug"`
	Email  string    `json:"email"`
	Phone  string    `json:"phone"`
	City   string    `json:"city"`
	Plan   string    `gorm:"not null" json:"plan"`
	Status string    `gorm:"not null;index" json:"status"`

	// Meta WhatsApp Cloud API credentials
	WAPhoneNumberID     string `gorm:"column:wa_phone_number_id;index" json:"wa_phone_number_id"`
	WABusinessAccountID string `gorm:"column:wa_business_account_id" json:"wa_business_account_id"`
	WAAccessToken       string `gorm:"column:wa_access_token" json:"-"`
	WADisplayNumber     string `gorm:"column:wa_display_number" json:"wa_display_number"`

	AIEnabled bool   `gorm:"column:ai_enabled" json:"ai_enabled"`
	AIPersona string `gorm:"column:ai_persona" json:"ai_persona"`
	Timezone  string `json:"timezone"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Institute) TableName() string {
	return "institutes"
}

func (i *Institute) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// HasWhatsApp reports whether Cloud API credentials are configured
func (i *Institute) HasWhatsApp() bool {
	return i.WAPhoneNumberID != "" && i.WAAccessToken != ""
}

func (i *Institute) IsSuspended() bool {
	return i.Status == InstituteStatusSuspended
}

// UpdateInstituteRequest is the editable profile. Nil fields are left alone.
type UpdateInstituteRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	City     *string `json:"city"`
	Timezone *string `json:"timezone"`
}

type WhatsAppSettingsRequest struct {
	PhoneNumberID     string `json:"phone_number_id"`
	BusinessAccountID string `json:"business_account_id"`
	AccessToken       string `json:"access_token"`
	DisplayNumber     string `json:"display_number"`
}

type AISettingsRequest struct {
	Enabled bool   `json:"enabled"`
	Persona string `json:"persona"`
}

type TestMessageRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// ProvisionInstituteRequest is used by super admins to create an institute
// and its first admin without an invite code.
type ProvisionInstituteRequest struct {
	Name          string `json:"name"`
	City          string `json:"city"`
	Plan          string `json:"plan"`
	AdminName     string `json:"admin_name"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
	AdminPhone    string `json:"admin_phone"`
}

type InstituteFilter struct {
	Search   string
	Status   string
	Page     int
	PageSize int
}

type InstituteListResponse struct {
	Institutes []Institute `json:"institutes"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// InstituteDetail is an institute with usage counts for the back office
type InstituteDetail struct {
	Institute
	UserCount         int64 `json:"user_count"`
	LeadCount         int64 `json:"lead_count"`
	CourseCount       int64 `json:"course_count"`
	ConversationCount int64 `json:"conversation_count"`
}
