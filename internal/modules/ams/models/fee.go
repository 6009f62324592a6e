package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FeeStatusPending = "pending"
	FeeStatusPartial = "partial"
	FeeStatusPaid    = "paid"
	FeeStatusOverdue = "overdue"
)

// FeeRecord is what a student owes for a course
type FeeRecord struct {
	ID           uuid.UUID  `gorm:"primaryKey" json:"id"`
	InstituteID  uuid.UUID  `gorm:"not null;index" json:"institute_id"`
	LeadID       *uuid.UUID `json:"lead_id,omitempty"`
	CourseID     *uuid.UUID `json:"course_id,omitempty"`
	StudentName  string     `gorm:"not null" json:"student_name"`
	StudentPhone string     `json:"student_phone"`
	TotalAmount  float64    `gorm:"not null" json:"total_amount"`
	PaidAmount   float64    `gorm:"not null" json:"paid_amount"`
	DueDate      time.Time  `gorm:"index" json:"due_date"`
	Status       string     `gorm:"not null;index" json:"status"`
	Notes        string     `json:"notes"`

	LastReminderAt *time.Time `json:"last_reminder_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Course   *Course      `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Payments []FeePayment `gorm:"foreignKey:FeeRecordID" json:"payments,omitempty"`
}

func (FeeRecord) TableName() string {
	return "fee_records"
}

func (f *FeeRecord) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (f *FeeRecord) Outstanding() float64 {
	if f.PaidAmount >= f.TotalAmount {
		return 0
	}
	return f.TotalAmount - f.PaidAmount
}

// Exceeds reports whether amount is more than the outstanding balance,
// compared in whole paise.
func (f *FeeRecord) Exceeds(amount float64) bool {
	return math.Round(amount*100) > math.Round(f.Outstanding()*100)
}

// DeriveStatus computes the status from amounts and due date at now
func (f *FeeRecord) DeriveStatus(now time.Time) string {
	switch {
	case f.PaidAmount >= f.TotalAmount:
		return FeeStatusPaid
	case f.DueDate.Before(now):
		return FeeStatusOverdue
	case f.PaidAmount > 0:
		return FeeStatusPartial
	default:
		return FeeStatusPending
	}
}

type FeePayment struct {
	ID          uuid.UUID  `gorm:"primaryKey" json:"id"`
	FeeRecordID uuid.UUID  `gorm:"not null;index" json:"fee_record_id"`
	Amount      float64    `gorm:"not null" json:"amount"`
	Method      string     `json:"method"` // cash, upi, card, bank_transfer
	Reference   string     `json:"reference"`
	ReceiptNo   string     `gorm:"uniqueIndex" json:"receipt_no"`
	RecordedBy  *uuid.UUID `json:"recorded_by,omitempty"`
	PaidAt      time.Time  `json:"paid_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (FeePayment) TableName() string {
	return "fee_payments"
}

func (p *FeePayment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type FeeRequest struct {
	LeadID       *string `json:"lead_id"`
	CourseID     *string `json:"course_id"`
	StudentName  string  `json:"student_name"`
	StudentPhone string  `json:"student_phone"`
	TotalAmount  float64 `json:"total_amount"`
	DueDate      string  `json:"due_date"`
	Notes        string  `json:"notes"`
}

type PaymentRequest struct {
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Reference string  `json:"reference"`
	PaidAt    string  `json:"paid_at"`
}

type FeeFilter struct {
	InstituteID uuid.UUID
	Status      string
	CourseID    *uuid.UUID
	Search      string
	Page        int
	PageSize    int
}

type FeeListResponse struct {
	Fees       []FeeRecord `json:"fees"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

type FeeSummary struct {
	TotalBilled     float64 `json:"total_billed"`
	TotalCollected  float64 `json:"total_collected"`
	Outstanding     float64 `json:"outstanding"`
	OverdueCount    int64   `json:"overdue_count"`
	TotalBilledText string  `json:"total_billed_text"`
	CollectedText   string  `json:"collected_text"`
	OutstandingText string  `json:"outstanding_text"`
}
