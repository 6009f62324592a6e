package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/adwelink/ams-api/internal/core/export"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/repositories"
	"github.com/adwelink/ams-api/internal/shared/utils"
	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var paymentMethods = map[string]bool{"cash": true, "upi": true, "card": true, "bank_transfer": true, "cheque": true}

type FeeService struct {
	repo          repositories.FeeRepo
	leads         repositories.LeadRepo
	courses       repositories.CourseRepo
	institutes    *InstituteService
	conversations *ConversationService
	now           func() time.Time
}

func NewFeeService(
	repo repositories.FeeRepo,
	leads repositories.LeadRepo,
	courses repositories.CourseRepo,
	institutes *InstituteService,
	conversations *ConversationService,
) *FeeService {
	return &FeeService{
		repo:          repo,
		leads:         leads,
		courses:       courses,
		institutes:    institutes,
		conversations: conversations,
		now:           time.Now,
	}
}

func (s *FeeService) List(filter models.FeeFilter) (*models.FeeListResponse, error) {
	fees, total, err := s.repo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list fees: %w", err)
	}
	page, size, _ := repositories.Paginate(filter.Page, filter.PageSize)
	return &models.FeeListResponse{
		Fees:       fees,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: repositories.TotalPages(total, size),
	}, nil
}

func (s *FeeService) Get(instituteID, id uuid.UUID) (*models.FeeRecord, error) {
	fee, err := s.repo.GetByID(instituteID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeeNotFound
		}
		return nil, err
	}
	return fee, nil
}

func (s *FeeService) Create(instituteID uuid.UUID, req *models.FeeRequest) (*models.FeeRecord, error) {
	if req.TotalAmount <= 0 {
		return nil, invalid("total_amount", "must be greater than zero")
	}
	if strings.TrimSpace(req.DueDate) == "" {
		return nil, invalid("due_date", "is required")
	}
	due, err := dateparse.ParseLocal(req.DueDate)
	if err != nil {
		return nil, invalid("due_date", "unrecognised date")
	}

	fee := &models.FeeRecord{
		InstituteID:  instituteID,
		StudentName:  strings.TrimSpace(req.StudentName),
		StudentPhone: utils.NormalizePhone(req.StudentPhone),
		TotalAmount:  req.TotalAmount,
		DueDate:      due,
		Notes:        strings.TrimSpace(req.Notes),
	}

	if req.LeadID != nil && *req.LeadID != "" {
		leadID, err := uuid.Parse(*req.LeadID)
		if err != nil {
			return nil, invalid("lead_id", "invalid id")
		}
		lead, err := s.leads.GetByID(instituteID, leadID)
		if err != nil {
			return nil, invalid("lead_id", "lead not found")
		}
		fee.LeadID = &lead.ID
		if fee.StudentName == "" {
			fee.StudentName = lead.Name
		}
		if fee.StudentPhone == "" {
			fee.StudentPhone = lead.Phone
		}
		if fee.CourseID == nil {
			fee.CourseID = lead.CourseID
		}
	}
	if req.CourseID != nil && *req.CourseID != "" {
		courseID, err := uuid.Parse(*req.CourseID)
		if err != nil {
			return nil, invalid("course_id", "invalid id")
		}
		if _, err := s.courses.GetByID(instituteID, courseID); err != nil {
			return nil, invalid("course_id", "course not found")
		}
		fee.CourseID = &courseID
	}
	if fee.StudentName == "" {
		return nil, invalid("student_name", "is required")
	}

	fee.Status = fee.DeriveStatus(s.now())
	if err := s.repo.Create(fee); err != nil {
		return nil, fmt.Errorf("failed to create fee record: %w", err)
	}
	return fee, nil
}

// RecordPayment adds a payment and returns the updated record with the
// stored payment
func (s *FeeService) RecordPayment(instituteID, id uuid.UUID, userID *uuid.UUID, req *models.PaymentRequest) (*models.FeeRecord, *models.FeePayment, error) {
	if req.Amount <= 0 {
		return nil, nil, invalid("amount", "must be greater than zero")
	}
	method := strings.ToLower(strings.TrimSpace(req.Method))
	if method == "" {
		method = "cash"
	}
	if !paymentMethods[method] {
		return nil, nil, invalid("method", "unknown payment method")
	}

	fee, err := s.Get(instituteID, id)
	if err != nil {
		return nil, nil, err
	}
	if fee.Exceeds(req.Amount) {
		return nil, nil, invalid("amount", "exceeds outstanding balance of "+utils.FormatINR(fee.Outstanding()))
	}

	paidAt := s.now()
	if req.PaidAt != "" {
		if paidAt, err = dateparse.ParseLocal(req.PaidAt); err != nil {
			return nil, nil, invalid("paid_at", "unrecognised date")
		}
	}

	payment := &models.FeePayment{
		Amount:     req.Amount,
		Method:     method,
		Reference:  strings.TrimSpace(req.Reference),
		RecordedBy: userID,
		PaidAt:     paidAt,
	}
	if _, err := s.repo.RecordPayment(instituteID, id, payment, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrFeeNotFound
		}
		if errors.Is(err, repositories.ErrOverpayment) {
			return nil, nil, invalid("amount", err.Error())
		}
		return nil, nil, fmt.Errorf("failed to record payment: %w", err)
	}

	log.Info().Str("fee_id", id.String()).Str("receipt_no", payment.ReceiptNo).Float64("amount", payment.Amount).Msg("💰 Payment recorded")

	updated, err := s.Get(instituteID, id)
	if err != nil {
		return nil, nil, err
	}
	return updated, payment, nil
}

func (s *FeeService) Summary(instituteID uuid.UUID) (*models.FeeSummary, error) {
	summary, err := s.repo.Summary(instituteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fee summary: %w", err)
	}
	summary.TotalBilledText = utils.FormatINR(summary.TotalBilled)
	summary.CollectedText = utils.FormatINR(summary.TotalCollected)
	summary.OutstandingText = utils.FormatINR(summary.Outstanding)
	return summary, nil
}

// Receipt renders the PDF receipt of one payment, or the latest payment
// when paymentID is nil
func (s *FeeService) Receipt(instituteID, id uuid.UUID, paymentID *uuid.UUID, w io.Writer) (string, error) {
	fee, err := s.Get(instituteID, id)
	if err != nil {
		return "", err
	}
	if len(fee.Payments) == 0 {
		return "", invalid("payment_id", "no payments recorded")
	}

	// payments are ordered by paid_at
	idx := len(fee.Payments) - 1
	if paymentID != nil {
		idx = -1
		for i := range fee.Payments {
			if fee.Payments[i].ID == *paymentID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return "", invalid("payment_id", "payment not found")
		}
	}
	payment := fee.Payments[idx]

	paidToDate := 0.0
	for _, p := range fee.Payments[:idx+1] {
		paidToDate += p.Amount
	}

	institute, err := s.institutes.Get(instituteID)
	if err != nil {
		return "", err
	}

	receipt := &export.Receipt{
		ReceiptNo:      payment.ReceiptNo,
		InstituteName:  institute.Name,
		InstituteEmail: institute.Email,
		InstitutePhone: institute.Phone,
		StudentName:    fee.StudentName,
		StudentPhone:   fee.StudentPhone,
		PaidAt:         payment.PaidAt,
		Amount:         payment.Amount,
		Method:         payment.Method,
		Reference:      payment.Reference,
		TotalFee:       fee.TotalAmount,
		PaidToDate:     paidToDate,
	}
	if fee.Course != nil {
		receipt.CourseName = fee.Course.Name
	}
	if err := export.WriteReceipt(receipt, w); err != nil {
		return "", fmt.Errorf("failed to render receipt: %w", err)
	}
	return payment.ReceiptNo + ".pdf", nil
}

// Remind sends a WhatsApp reminder for one fee record
func (s *FeeService) Remind(ctx context.Context, instituteID, id uuid.UUID, userID *uuid.UUID) (*models.Message, error) {
	fee, err := s.Get(instituteID, id)
	if err != nil {
		return nil, err
	}
	if fee.Status == models.FeeStatusPaid {
		return nil, invalid("status", "fee is already paid")
	}
	if fee.StudentPhone == "" {
		return nil, invalid("student_phone", "no phone number on record")
	}
	institute, err := s.institutes.Get(instituteID)
	if err != nil {
		return nil, err
	}

	sender := models.SenderHuman
	if userID == nil {
		sender = models.SenderSystem
	}
	msg, err := s.conversations.SendToContact(ctx, institute, fee.StudentPhone, fee.StudentName, sender, userID, ReminderText(institute.Name, fee, s.now()))
	if err != nil {
		return msg, err
	}
	if err := s.repo.SetReminded(fee.ID, s.now()); err != nil {
		log.Warn().Err(err).Str("fee_id", fee.ID.String()).Msg("⚠️ Failed to store reminder time")
	}
	return msg, nil
}

// ReminderText is the WhatsApp body of a fee reminder
func ReminderText(instituteName string, fee *models.FeeRecord, now time.Time) string {
	course := ""
	if fee.Course != nil {
		course = " for " + fee.Course.Name
	}
	due := fee.DueDate.Format("02 Jan 2006")
	if fee.DueDate.Before(now) {
		return fmt.Sprintf("Dear %s, your fee of %s%s at %s was due on %s and is now overdue. Please pay at the earliest or contact the office.",
			fee.StudentName, utils.FormatINR(fee.Outstanding()), course, instituteName, due)
	}
	return fmt.Sprintf("Dear %s, a gentle reminder that your fee of %s%s at %s is due on %s.",
		fee.StudentName, utils.FormatINR(fee.Outstanding()), course, instituteName, due)
}
