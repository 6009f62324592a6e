package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	LeadStatusFresh     = "fresh"
	LeadStatusFollowUp  = "follow_up"
	LeadStatusConverted = "converted"
	LeadStatusLost      = "lost"
)

const (
	LeadSourceWhatsApp = "whatsapp"
	LeadSourceWalkIn   = "walk_in"
	LeadSourceWebsite  = "website"
	LeadSourceReferral = "referral"
	LeadSourcePhone    = "phone"
	LeadSourceImport   = "import"
	LeadSourceOther    = "other"
)

var LeadStatuses = []string{LeadStatusFresh, LeadStatusFollowUp, LeadStatusConverted, LeadStatusLost}

var LeadSources = []string{
	LeadSourceWhatsApp, LeadSourceWalkIn, LeadSourceWebsite, LeadSourceReferral,
	LeadSourcePhone, LeadSourceImport, LeadSourceOther,
}

func ValidLeadStatus(s string) bool { return contains(LeadStatuses, s) }

func ValidLeadSource(s string) bool { return contains(LeadSources, s) }

// Lead is a prospective student inquiry
type Lead struct {
	ID          uuid.UUID      `gorm:"primaryKey" json:"id"`
	InstituteID uuid.UUID      `gorm:"not null;index;uniqueIndex:idx_lead_phone,priority:1" json:"institute_id"`
	Name        string         `gorm:"not null" json:"name"`
	Phone       string         `gorm:"not null;index;uniqueIndex:idx_lead_phone,priority:2" json:"phone"`
	Email       string         `json:"email"`
	CourseID    *uuid.UUID     `json:"course_id,omitempty"`
	Source      string         `gorm:"not null" json:"source"`
	Status      string         `gorm:"not null;index" json:"status"`
	FollowUpAt  *time.Time     `gorm:"index" json:"follow_up_at,omitempty"`
	AssignedTo  *uuid.UUID     `json:"assigned_to,omitempty"`
	Notes       string         `json:"notes"`
	LostReason  string         `json:"lost_reason,omitempty"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`

	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`
	// FollowUpNotifiedAt is set once the due reminder has gone out
	FollowUpNotifiedAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Lead) TableName() string {
	return "leads"
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

const (
	ActivityCreated      = "created"
	ActivityNote         = "note"
	ActivityStatusChange = "status_change"
)

// LeadActivity is the timeline entry of a lead
type LeadActivity struct {
	ID         uuid.UUID  `gorm:"primaryKey" json:"id"`
	LeadID     uuid.UUID  `gorm:"not null;index" json:"lead_id"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	Type       string     `gorm:"not null" json:"type"`
	Content    string     `json:"content"`
	FromStatus string     `json:"from_status,omitempty"`
	ToStatus   string     `json:"to_status,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (LeadActivity) TableName() string {
	return "lead_activities"
}

func (a *LeadActivity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type LeadRequest struct {
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Email      string  `json:"email"`
	CourseID   *string `json:"course_id"`
	Source     string  `json:"source"`
	FollowUpAt string  `json:"follow_up_at"`
	AssignedTo *string `json:"assigned_to"`
	Notes      string  `json:"notes"`
}

type UpdateLeadStatusRequest struct {
	Status     string `json:"status"`
	Reason     string `json:"reason"`
	FollowUpAt string `json:"follow_up_at"`
}

type AddNoteRequest struct {
	Content string `json:"content"`
}

type LeadFilter struct {
	InstituteID uuid.UUID
	Status      string
	Source      string
	CourseID    *uuid.UUID
	AssignedTo  *uuid.UUID
	Search      string
	From        *time.Time
	To          *time.Time
	Page        int
	PageSize    int
}

type LeadListResponse struct {
	Leads      []Lead `json:"leads"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
}

type LeadStats struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"by_status"`
	BySource       map[string]int64 `json:"by_source"`
	ConversionRate float64          `json:"conversion_rate"` // percent
}

// LeadImportRow is one CSV row of a lead import
type LeadImportRow struct {
	Name       string `csv:"name"`
	Phone      string `csv:"phone"`
	Email      string `csv:"email"`
	Course     string `csv:"course"`
	Source     string `csv:"source"`
	Status     string `csv:"status"`
	FollowUpAt string `csv:"follow_up_at"`
	Notes      string `csv:"notes"`
	CreatedAt  string `csv:"created_at"`
}

type ImportResult struct {
	Imported   int           `json:"imported"`
	Duplicates []string      `json:"duplicates"`
	Errors     []ImportError `json:"errors"`
}

type ImportError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
