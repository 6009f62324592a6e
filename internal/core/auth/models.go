package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleSuperAdmin     = "super_admin"
	RoleInstituteAdmin = "institute_admin"
	RoleStaff          = "staff"
)

// InstituteUser is a console login. Super admins have no institute.
type InstituteUser struct {
	ID          uuid.UUID  `gorm:"primaryKey" json:"id"`
	InstituteID *uuid.UUID `gorm:"index" json:"institute_id,omitempty"`

	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Role        string `gorm:"not null" json:"role"`

	PasswordHash string `json:"-"`

	GoogleID      *string `gorm:"column:google_id;uniqueIndex" json:"-"`
	OAuthProvider string  `gorm:"column:oauth_provider;default:email" json:"oauth_provider"`
	AvatarURL     string  `json:"avatar_url,omitempty"`

	IsActive bool `json:"is_active"`

	RefreshToken          *string    `json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (InstituteUser) TableName() string {
	return "institute_users"
}

func (u *InstituteUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// LoginRequest represents login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest carries a Google Identity Services credential
type GoogleLoginRequest struct {
	GoogleIDToken string `json:"google_id_token"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresIn    int64          `json:"expires_in"` // seconds
	User         *UserInfo      `json:"user"`
	Institute    *InstituteInfo `json:"institute,omitempty"`
}

// UserInfo represents user information in auth response
type UserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	OAuthProvider string `json:"oauth_provider"`
}

// InstituteInfo is the tenant summary returned with a session
type InstituteInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Status    string `json:"status"`
	Plan      string `json:"plan"`
	AIEnabled bool   `json:"ai_enabled"`
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	InstituteID string `json:"institute_id"`
}
