package repositories

import (
	"errors"
	"strings"
	"time"

	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInviteUnavailable means the conditional consume matched no row
var ErrInviteUnavailable = errors.New("invite code unavailable")

type InviteCodeRepo interface {
	WithTx(tx *gorm.DB) InviteCodeRepo
	Create(code *models.InviteCode) error
	GetByCode(code string) (*models.InviteCode, error)
	GetByID(id uuid.UUID) (*models.InviteCode, error)
	List() ([]models.InviteCode, error)
	Deactivate(id uuid.UUID) error
	Delete(id uuid.UUID) error
	Consume(code string, now time.Time) error
	ActiveTotals(now time.Time) (codes int64, remaining int64, err error)
}

type inviteCodeRepo struct {
	db *gorm.DB
}

func NewInviteCodeRepo(db *gorm.DB) InviteCodeRepo {
	return &inviteCodeRepo{db: db}
}

// NormalizeCode is the stored form of a code: trimmed and upper-cased
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *inviteCodeRepo) WithTx(tx *gorm.DB) InviteCodeRepo {
	return &inviteCodeRepo{db: tx}
}

func (r *inviteCodeRepo) Create(code *models.InviteCode) error {
	code.Code = NormalizeCode(code.Code)
	return r.db.Create(code).Error
}

func (r *inviteCodeRepo) GetByCode(code string) (*models.InviteCode, error) {
	var invite models.InviteCode
	if err := r.db.Where("code = ?", NormalizeCode(code)).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *inviteCodeRepo) GetByID(id uuid.UUID) (*models.InviteCode, error) {
	var invite models.InviteCode
	if err := r.db.First(&invite, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *inviteCodeRepo) List() ([]models.InviteCode, error) {
	var codes []models.InviteCode
	err := r.db.Order("created_at DESC").Find(&codes).Error
	return codes, err
}

func (r *inviteCodeRepo) Deactivate(id uuid.UUID) error {
	res := r.db.Model(&models.InviteCode{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *inviteCodeRepo) Delete(id uuid.UUID) error {
	res := r.db.Delete(&models.InviteCode{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Consume increments used_count only while the code is still usable. The
// check and the increment are one statement, so concurrent signups can
// never push used_count past max_uses.
func (r *inviteCodeRepo) Consume(code string, now time.Time) error {
	res := r.db.Model(&models.InviteCode{}).
		Where("code = ?", NormalizeCode(code)).
		Where("is_active = ?", true).
		Where("used_count < max_uses").
		Where("expires_at IS NULL OR expires_at > ?", now).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInviteUnavailable
	}
	return nil
}

func (r *inviteCodeRepo) ActiveTotals(now time.Time) (int64, int64, error) {
	var row struct {
		Codes     int64
		Remaining int64
	}
	err := r.db.Model(&models.InviteCode{}).
		Select("COUNT(*) AS codes, COALESCE(SUM(max_uses - used_count), 0) AS remaining").
		Where("is_active = ? AND used_count < max_uses", true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Scan(&row).Error
	return row.Codes, row.Remaining, err
}
