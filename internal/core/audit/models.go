package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actions recorded by the console
const (
	ActionLogin      = "login"
	ActionLogout     = "logout"
	ActionSignup     = "signup"
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionStatus     = "status_change"
	ActionSuspend    = "suspend"
	ActionActivate   = "activate"
	ActionImport     = "import"
	ActionExport     = "export"
	ActionAIPause    = "ai_pause"
	ActionAIResume   = "ai_resume"
	ActionDeactivate = "deactivate"
)

// AuditLog is one console action
type AuditLog struct {
	ID uuid.UUID `json:"id" gorm:"primaryKey"`

	InstituteID *uuid.UUID `json:"institute_id,omitempty" gorm:"index"`
	UserID      *uuid.UUID `json:"user_id,omitempty" gorm:"index"`

	Action     string `json:"action" gorm:"not null;index"`
	EntityType string `json:"entity_type" gorm:"not null;index"` // lead, course, fee, institute, invite_code, ...
	EntityID   string `json:"entity_id" gorm:"index"`

	OldValues datatypes.JSON `json:"old_values,omitempty"`
	NewValues datatypes.JSON `json:"new_values,omitempty"`

	IPAddress   string `json:"ip_address,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
	Description string `json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Actor identifies who performed an action and from where
type Actor struct {
	InstituteID *uuid.UUID
	UserID      *uuid.UUID
	IPAddress   string
	UserAgent   string
}

// AuditFilter represents filters for querying audit logs
type AuditFilter struct {
	InstituteID *uuid.UUID
	UserID      *uuid.UUID
	Action      string
	EntityType  string
	EntityID    string
	StartDate   *time.Time
	EndDate     *time.Time
	Page        int
	PageSize    int
}

// AuditLogResponse represents paginated audit log response
type AuditLogResponse struct {
	Logs       []AuditLog `json:"logs"`
	TotalCount int64      `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}
