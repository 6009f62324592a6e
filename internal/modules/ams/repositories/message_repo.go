package repositories

import (
	"errors"
	"time"

	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepo interface {
	// Create inserts msg and reports false when its wa_message_id was
	// already stored.
	Create(msg *models.Message) (bool, error)
	List(conversationID uuid.UUID, limit int, before *time.Time) ([]models.Message, error)
	Recent(conversationID uuid.UUID, limit int) ([]models.Message, error)
	SetDelivery(id uuid.UUID, waMessageID *string, status, errMsg string) error
	ApplyStatus(instituteID uuid.UUID, waMessageID, recipient, status, errMsg string) (bool, error)
}

type messageRepo struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepo {
	return &messageRepo{db: db}
}

func (r *messageRepo) Create(msg *models.Message) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(msg)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// List returns up to limit messages oldest first, optionally only those
// created before a cursor.
func (r *messageRepo) List(conversationID uuid.UUID, limit int, before *time.Time) ([]models.Message, error) {
	var msgs []models.Message
	query := r.db.Where("conversation_id = ?", conversationID)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}
	if err := query.Order("created_at DESC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, err
	}
	reverse(msgs)
	return msgs, nil
}

// Recent is the tail of a conversation, oldest first, used as LLM context
func (r *messageRepo) Recent(conversationID uuid.UUID, limit int) ([]models.Message, error) {
	return r.List(conversationID, limit, nil)
}

// SetDelivery records the outcome of a send. The status only leaves
// pending; a receipt that arrived before the send returned is kept.
func (r *messageRepo) SetDelivery(id uuid.UUID, waMessageID *string, status, errMsg string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{}
		if waMessageID != nil {
			fields["wa_message_id"] = *waMessageID
		}
		if errMsg != "" {
			fields["error_message"] = errMsg
		}
		if len(fields) > 0 {
			if err := tx.Model(&models.Message{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Message{}).
			Where("id = ? AND status = ?", id, models.MessageStatusPending).
			Update("status", status).Error
	})
}

// ApplyStatus moves an outbound message to status. The message is found
// by wa_message_id, or failing that, the latest outbound message to
// recipient in the institute. Statuses never move backwards except to
// failed. Returns false when no message matched.
func (r *messageRepo) ApplyStatus(instituteID uuid.UUID, waMessageID, recipient, status, errMsg string) (bool, error) {
	var msg models.Message
	err := gorm.ErrRecordNotFound
	if waMessageID != "" {
		err = r.db.Where("institute_id = ? AND wa_message_id = ? AND direction = ?", instituteID, waMessageID, models.DirectionOutbound).
			First(&msg).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = r.db.Where("institute_id = ? AND recipient = ? AND direction = ?", instituteID, recipient, models.DirectionOutbound).
			Order("created_at DESC").
			First(&msg).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !models.StatusAdvances(msg.Status, status) {
		return true, nil
	}

	fields := map[string]interface{}{"status": status}
	if errMsg != "" {
		fields["error_message"] = errMsg
	}
	if msg.WAMessageID == nil && waMessageID != "" {
		fields["wa_message_id"] = waMessageID
	}
	return true, r.db.Model(&msg).Updates(fields).Error
}

func reverse(msgs []models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
