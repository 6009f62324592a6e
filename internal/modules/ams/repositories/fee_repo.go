package repositories

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrOverpayment is returned by RecordPayment when the amount is more than
// the balance left on the record.
var ErrOverpayment = errors.New("payment exceeds outstanding balance")

type FeeRepo interface {
	Create(fee *models.FeeRecord) error
	GetByID(instituteID, id uuid.UUID) (*models.FeeRecord, error)
	List(filter models.FeeFilter) ([]models.FeeRecord, int64, error)
	RecordPayment(instituteID, feeID uuid.UUID, payment *models.FeePayment, now time.Time) (*models.FeeRecord, error)
	GetPayment(feeID, paymentID uuid.UUID) (*models.FeePayment, error)
	Summary(instituteID uuid.UUID) (*models.FeeSummary, error)
	MarkOverdue(now time.Time) (int64, error)
	DueBetween(from, to time.Time) ([]models.FeeRecord, error)
	Overdue() ([]models.FeeRecord, error)
	SetReminded(id uuid.UUID, at time.Time) error
}

type feeRepo struct {
	db *gorm.DB
}

func NewFeeRepo(db *gorm.DB) FeeRepo {
	return &feeRepo{db: db}
}

func (r *feeRepo) Create(fee *models.FeeRecord) error {
	return r.db.Create(fee).Error
}

func (r *feeRepo) GetByID(instituteID, id uuid.UUID) (*models.FeeRecord, error) {
	var fee models.FeeRecord
	err := r.db.Preload("Course").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC") }).
		Where("institute_id = ? AND id = ?", instituteID, id).
		First(&fee).Error
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

func (r *feeRepo) List(filter models.FeeFilter) ([]models.FeeRecord, int64, error) {
	var fees []models.FeeRecord
	var total int64

	query := r.db.Model(&models.FeeRecord{}).Where("institute_id = ?", filter.InstituteID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}
	query = searchAny(query, filter.Search, "student_name", "student_phone")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, size, offset := Paginate(filter.Page, filter.PageSize)
	err := query.Preload("Course").Order("due_date ASC").Offset(offset).Limit(size).Find(&fees).Error
	return fees, total, err
}

// RecordPayment stores a payment and moves paid_amount and status in the
// same transaction. The balance is checked against the row read inside it.
func (r *feeRepo) RecordPayment(instituteID, feeID uuid.UUID, payment *models.FeePayment, now time.Time) (*models.FeeRecord, error) {
	var fee models.FeeRecord
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("institute_id = ? AND id = ?", instituteID, feeID).First(&fee).Error; err != nil {
			return err
		}
		if fee.Exceeds(payment.Amount) {
			return ErrOverpayment
		}

		payment.FeeRecordID = fee.ID
		if payment.ReceiptNo == "" {
			payment.ReceiptNo = receiptNumber(payment.PaidAt)
		}
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		fee.PaidAmount += payment.Amount
		if fee.PaidAmount > fee.TotalAmount {
			fee.PaidAmount = fee.TotalAmount
		}
		fee.Status = fee.DeriveStatus(now)
		return tx.Model(&fee).Updates(map[string]interface{}{
			"paid_amount": fee.PaidAmount,
			"status":      fee.Status,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

func (r *feeRepo) GetPayment(feeID, paymentID uuid.UUID) (*models.FeePayment, error) {
	var payment models.FeePayment
	err := r.db.Where("fee_record_id = ? AND id = ?", feeID, paymentID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *feeRepo) Summary(instituteID uuid.UUID) (*models.FeeSummary, error) {
	var row struct {
		Billed    float64
		Collected float64
	}
	err := r.db.Model(&models.FeeRecord{}).
		Select("COALESCE(SUM(total_amount), 0) AS billed, COALESCE(SUM(paid_amount), 0) AS collected").
		Where("institute_id = ?", instituteID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	summary := &models.FeeSummary{
		TotalBilled:    row.Billed,
		TotalCollected: row.Collected,
		Outstanding:    row.Billed - row.Collected,
	}
	if summary.Outstanding < 0 {
		summary.Outstanding = 0
	}

	err = r.db.Model(&models.FeeRecord{}).
		Where("institute_id = ? AND status = ?", instituteID, models.FeeStatusOverdue).
		Count(&summary.OverdueCount).Error
	return summary, err
}

// MarkOverdue flips unpaid records whose due date has passed
func (r *feeRepo) MarkOverdue(now time.Time) (int64, error) {
	res := r.db.Model(&models.FeeRecord{}).
		Where("status IN ?", []string{models.FeeStatusPending, models.FeeStatusPartial}).
		Where("due_date < ?", now).
		Update("status", models.FeeStatusOverdue)
	return res.RowsAffected, res.Error
}

func (r *feeRepo) DueBetween(from, to time.Time) ([]models.FeeRecord, error) {
	var fees []models.FeeRecord
	err := r.db.Preload("Course").
		Where("status IN ?", []string{models.FeeStatusPending, models.FeeStatusPartial}).
		Where("due_date >= ? AND due_date <= ?", from, to).
		Find(&fees).Error
	return fees, err
}

func (r *feeRepo) Overdue() ([]models.FeeRecord, error) {
	var fees []models.FeeRecord
	err := r.db.Where("status = ?", models.FeeStatusOverdue).
		Order("institute_id, due_date").
		Find(&fees).Error
	return fees, err
}

func (r *feeRepo) SetReminded(id uuid.UUID, at time.Time) error {
	return r.db.Model(&models.FeeRecord{}).Where("id = ?", id).UpdateColumn("last_reminder_at", at).Error
}

func receiptNumber(at time.Time) string {
	if at.IsZero() {
		at = time.Now()
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("RCP-%s-%s", at.Format("20060102"), suffix)
}
