package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reasons returned by invite code validation
const (
	InviteReasonNotFound  = "not_found"
	InviteReasonInactive  = "inactive"
	InviteReasonExpired   = "expired"
	InviteReasonExhausted = "exhausted"
)

// InviteCode gates signup during the private pilot
type InviteCode struct {
	ID          uuid.UUID  `gorm:"primaryKey" json:"id"`
	Code        string     `gorm:"uniqueIndex;not null" json:"code"`
	Description string     `json:"description"`
	MaxUses     int        `gorm:"not null" json:"max_uses"`
	UsedCount   int        `gorm:"not null" json:"used_count"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (InviteCode) TableName() string {
	return "invite_codes"
}

func (i *InviteCode) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Check returns "" when the code can be used at now, else the reason.
func (i *InviteCode) Check(now time.Time) string {
	switch {
	case !i.IsActive:
		return InviteReasonInactive
	case i.ExpiresAt != nil && i.ExpiresAt.Before(now):
		return InviteReasonExpired
	case i.UsedCount >= i.MaxUses:
		return InviteReasonExhausted
	}
	return ""
}

// Remaining is how many signups the code still allows
func (i *InviteCode) Remaining() int {
	if i.UsedCount >= i.MaxUses {
		return 0
	}
	return i.MaxUses - i.UsedCount
}

type ValidateInviteRequest struct {
	Code string `json:"code"`
}

type ValidateInviteResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

type CreateInviteCodeRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	MaxUses     int    `json:"max_uses"`
	ExpiresAt   string `json:"expires_at"` // any format dateparse understands
}

type SignupRequest struct {
	InviteCode    string `json:"invite_code"`
	InstituteName string `json:"institute_name"`
	City          string `json:"city"`
	AdminName     string `json:"admin_name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Phone         string `json:"phone"`
}
