package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const redacted = "[redacted]"

// sensitiveKeys never reach the audit table, whatever struct they came from.
var sensitiveKeys = map[string]bool{
	"password":        true,
	"password_hash":   true,
	"access_token":    true,
	"refresh_token":   true,
	"wa_access_token": true,
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Log writes entry as is
func (s *Service) Log(ctx context.Context, entry *AuditLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// LogAction records an action without a before/after snapshot. Failures are
// logged and swallowed; an audit write never fails the request.
func (s *Service) LogAction(ctx context.Context, actor Actor, action, entityType, entityID, description string) {
	s.record(ctx, actor.entry(action, entityType, entityID), description)
}

// LogChange records a create, update or delete with JSON snapshots
func (s *Service) LogChange(ctx context.Context, actor Actor, action, entityType, entityID string, oldValue, newValue interface{}) {
	entry := actor.entry(action, entityType, entityID)
	entry.OldValues = snapshot(oldValue)
	entry.NewValues = snapshot(newValue)
	s.record(ctx, entry, "")
}

func (s *Service) record(ctx context.Context, entry *AuditLog, description string) {
	entry.Description = description
	if err := s.Log(ctx, entry); err != nil {
		log.Warn().Err(err).Str("action", entry.Action).Str("entity", entry.EntityType).Msg("⚠️ audit write failed")
	}
}

func (a Actor) entry(action, entityType, entityID string) *AuditLog {
	return &AuditLog{
		InstituteID: a.InstituteID,
		UserID:      a.UserID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		IPAddress:   a.IPAddress,
		UserAgent:   a.UserAgent,
	}
}

// GetLogs retrieves audit logs with filtering, newest first
func (s *Service) GetLogs(filter AuditFilter) (*AuditLogResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 200 {
		filter.PageSize = 50
	}

	var total int64
	if err := s.db.Model(&AuditLog{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count audit logs: %w", err)
	}

	var logs []AuditLog
	err := s.db.Scopes(filter.scope).
		Order("created_at DESC").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get audit logs: %w", err)
	}

	return &AuditLogResponse{
		Logs:       logs,
		TotalCount: total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize)),
	}, nil
}

func (f AuditFilter) scope(db *gorm.DB) *gorm.DB {
	if f.InstituteID != nil {
		db = db.Where("institute_id = ?", *f.InstituteID)
	}
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	if f.Action != "" {
		db = db.Where("action = ?", f.Action)
	}
	if f.EntityType != "" {
		db = db.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		db = db.Where("entity_id = ?", f.EntityID)
	}
	if f.StartDate != nil {
		db = db.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		db = db.Where("created_at <= ?", *f.EndDate)
	}
	return db
}

// DeleteOldLogs removes entries older than the retention window
func (s *Service) DeleteOldLogs(retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	res := s.db.Where("created_at < ?", cutoff).Delete(&AuditLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete old audit logs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// snapshot serializes value for the audit table with secrets masked.
// Values that do not marshal to a JSON object are stored unchanged.
func snapshot(value interface{}) datatypes.JSON {
	if value == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ audit snapshot not serializable")
		return nil
	}

	var fields map[string]interface{}
	if json.Unmarshal(data, &fields) != nil {
		return datatypes.JSON(data)
	}
	masked := false
	for k := range fields {
		if sensitiveKeys[strings.ToLower(k)] {
			fields[k] = redacted
			masked = true
		}
	}
	if !masked {
		return datatypes.JSON(data)
	}
	data, _ = json.Marshal(fields)
	return datatypes.JSON(data)
}
