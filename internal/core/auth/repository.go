package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new auth repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user. tx may be nil.
func (r *Repository) CreateUser(tx *gorm.DB, user *InstituteUser) error {
	if tx == nil {
		tx = r.db
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return tx.Create(user).Error
}

// GetUserByEmail retrieves an active user by email
func (r *Repository) GetUserByEmail(email string) (*InstituteUser, error) {
	var user InstituteUser
	err := r.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves user by ID
func (r *Repository) GetUserByID(id string) (*InstituteUser, error) {
	var user InstituteUser
	err := r.db.Where("id = ? AND is_active = ?", id, true).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByGoogleID retrieves user by Google OAuth ID
func (r *Repository) GetUserByGoogleID(googleID string) (*InstituteUser, error) {
	var user InstituteUser
	err := r.db.Where("google_id = ? AND is_active = ?", googleID, true).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByRefreshToken retrieves user by refresh token
func (r *Repository) GetUserByRefreshToken(refreshToken string) (*InstituteUser, error) {
	var user InstituteUser
	err := r.db.Where("refresh_token = ? AND is_active = ?", refreshToken, true).First(&user).Error
	if err != nil {
		return nil, err
	}

	if user.RefreshTokenExpiresAt != nil && user.RefreshTokenExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("refresh token expired")
	}

	return &user, nil
}

// LinkGoogleAccount stores the Google subject on an existing user
func (r *Repository) LinkGoogleAccount(userID uuid.UUID, googleID, avatarURL string) error {
	return r.db.Model(&InstituteUser{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"google_id":  googleID,
			"avatar_url": avatarURL,
		}).Error
}

// UpdateRefreshToken updates user's refresh token
func (r *Repository) UpdateRefreshToken(userID string, refreshToken string, expiresAt time.Time) error {
	return r.db.Model(&InstituteUser{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"refresh_token":            refreshToken,
			"refresh_token_expires_at": expiresAt,
		}).Error
}

// UpdateLastLogin updates user's last login timestamp
func (r *Repository) UpdateLastLogin(userID string) error {
	return r.db.Model(&InstituteUser{}).
		Where("id = ?", userID).
		Update("last_login_at", time.Now()).Error
}

// UpdatePasswordHash replaces the stored bcrypt hash
func (r *Repository) UpdatePasswordHash(userID uuid.UUID, hash string) error {
	return r.db.Model(&InstituteUser{}).
		Where("id = ?", userID).
		Update("password_hash", hash).Error
}

// RevokeRefreshToken clears user's refresh token
func (r *Repository) RevokeRefreshToken(userID string) error {
	return r.db.Model(&InstituteUser{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"refresh_token":            nil,
			"refresh_token_expires_at": nil,
		}).Error
}

// EmailExists checks if email already exists
func (r *Repository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Model(&InstituteUser{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByInstitute returns every user of an institute
func (r *Repository) ListByInstitute(instituteID uuid.UUID) ([]InstituteUser, error) {
	var users []InstituteUser
	err := r.db.Where("institute_id = ?", instituteID).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

// SetActive enables or disables a user inside an institute
func (r *Repository) SetActive(instituteID, userID uuid.UUID, active bool) error {
	res := r.db.Model(&InstituteUser{}).
		Where("id = ? AND institute_id = ?", userID, instituteID).
		Updates(map[string]interface{}{
			"is_active":                active,
			"refresh_token":            nil,
			"refresh_token_expires_at": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetInstitute loads the tenant summary for a user
func (r *Repository) GetInstitute(instituteID uuid.UUID) (*InstituteInfo, error) {
	var row struct {
		ID        uuid.UUID
		Name      string
		Slug      string
		Status    string
		Plan      string
		AIEnabled bool
	}

	err := r.db.Table("institutes").
		Select("id, name, slug, status, plan, ai_enabled").
		Where("id = ?", instituteID).
		Take(&row).Error
	if err != nil {
		return nil, err
	}

	return &InstituteInfo{
		ID:        row.ID.String(),
		Name:      row.Name,
		Slug:      row.Slug,
		Status:    row.Status,
		Plan:      row.Plan,
		AIEnabled: row.AIEnabled,
	}, nil
}
