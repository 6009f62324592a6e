package repositories

import (
	"errors"
	"time"

	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepo interface {
	GetOrCreate(instituteID uuid.UUID, phone, name string) (*models.Conversation, error)
	GetByID(instituteID, id uuid.UUID) (*models.Conversation, error)
	List(filter models.ConversationFilter) ([]models.Conversation, int64, error)
	SetLead(id, leadID uuid.UUID) error
	SetPaused(instituteID, id uuid.UUID, paused bool) error
	RecordInbound(id uuid.UUID, preview string, at time.Time) error
	RecordOutbound(id uuid.UUID, preview string, at time.Time) error
	MarkRead(id uuid.UUID) error
}

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepo{db: db}
}

// GetOrCreate finds the thread for (institute, phone) or inserts it. A
// concurrent insert for the same contact loses on the unique index and
// reads the winner's row.
func (r *conversationRepo) GetOrCreate(instituteID uuid.UUID, phone, name string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.Where("institute_id = ? AND contact_phone = ?", instituteID, phone).First(&conv).Error
	if err == nil {
		if name != "" && conv.ContactName != name {
			conv.ContactName = name
			r.db.Model(&conv).UpdateColumn("contact_name", name)
		}
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conv = models.Conversation{
		InstituteID:  instituteID,
		ContactPhone: phone,
		ContactName:  name,
	}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&conv)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		conv = models.Conversation{}
		if err := r.db.Where("institute_id = ? AND contact_phone = ?", instituteID, phone).First(&conv).Error; err != nil {
			return nil, err
		}
	}
	return &conv, nil
}

func (r *conversationRepo) GetByID(instituteID, id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.Where("institute_id = ? AND id = ?", instituteID, id).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) List(filter models.ConversationFilter) ([]models.Conversation, int64, error) {
	var convs []models.Conversation
	var total int64

	query := r.db.Model(&models.Conversation{}).Where("institute_id = ?", filter.InstituteID)
	if filter.Paused != nil {
		query = query.Where("ai_paused = ?", *filter.Paused)
	}
	query = searchAny(query, filter.Search, "contact_name", "contact_phone")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, size, offset := Paginate(filter.Page, filter.PageSize)
	err := query.Order("last_message_at DESC").Offset(offset).Limit(size).Find(&convs).Error
	return convs, total, err
}

func (r *conversationRepo) SetLead(id, leadID uuid.UUID) error {
	return r.db.Model(&models.Conversation{}).Where("id = ?", id).UpdateColumn("lead_id", leadID).Error
}

func (r *conversationRepo) SetPaused(instituteID, id uuid.UUID, paused bool) error {
	res := r.db.Model(&models.Conversation{}).
		Where("institute_id = ? AND id = ?", instituteID, id).
		UpdateColumn("ai_paused", paused)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *conversationRepo) RecordInbound(id uuid.UUID, preview string, at time.Time) error {
	return r.db.Model(&models.Conversation{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"last_message":    preview,
		"last_message_at": at,
		"unread_count":    gorm.Expr("unread_count + 1"),
	}).Error
}

func (r *conversationRepo) RecordOutbound(id uuid.UUID, preview string, at time.Time) error {
	return r.db.Model(&models.Conversation{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"last_message":    preview,
		"last_message_at": at,
	}).Error
}

func (r *conversationRepo) MarkRead(id uuid.UUID) error {
	return r.db.Model(&models.Conversation{}).Where("id = ?", id).UpdateColumn("unread_count", 0).Error
}
