package handlers

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adwelink/ams-api/internal/core/audit"
	"github.com/adwelink/ams-api/internal/core/auth"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/services"
	"github.com/gofiber/fiber/v2"
)

type FeeHandler struct {
	fees  *services.FeeService
	audit *audit.Service
}

func NewFeeHandler(fees *services.FeeService, auditSvc *audit.Service) *FeeHandler {
	return &FeeHandler{fees: fees, audit: auditSvc}
}

// ListFees godoc
// @Summary List fee records
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, partial, paid or overdue"
// @Param course_id query string false "Course ID"
// @Param search query string false "Student name or phone"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} models.FeeListResponse
// @Router /fees [get]
func (h *FeeHandler) ListFees(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	courseID, ok := queryUUID(c, "course_id")
	if !ok {
		return badRequest(c, "Invalid course_id")
	}

	resp, err := h.fees.List(models.FeeFilter{
		InstituteID: instituteID,
		Status:      c.Query("status"),
		CourseID:    courseID,
		Search:      strings.TrimSpace(c.Query("search")),
		Page:        c.QueryInt("page", 1),
		PageSize:    c.QueryInt("page_size", 20),
	})
	if err != nil {
		return fail(c, err, "Failed to list fees")
	}
	return c.JSON(resp)
}

// CreateFee godoc
// @Summary Create a fee record
// @Description The student name and phone default to the linked lead's
// @Tags Fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.FeeRequest true "Fee record"
// @Success 201 {object} models.FeeRecord
// @Failure 400 {object} map[string]interface{}
// @Router /fees [post]
func (h *FeeHandler) CreateFee(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	var req models.FeeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	fee, err := h.fees.Create(instituteID, &req)
	if err != nil {
		return fail(c, err, "Failed to create fee record")
	}

	if h.audit != nil {
		h.audit.LogChange(c.UserContext(), auth.ActorFromCtx(c), audit.ActionCreate, "fee", fee.ID.String(), nil, fee)
	}
	return c.Status(fiber.StatusCreated).JSON(fee)
}

// GetFee godoc
// @Summary Get a fee record with its payments
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Param id path string true "Fee ID"
// @Success 200 {object} models.FeeRecord
// @Failure 404 {object} map[string]interface{}
// @Router /fees/{id} [get]
func (h *FeeHandler) GetFee(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid fee id")
	}

	fee, err := h.fees.Get(instituteID, id)
	if err != nil {
		return fail(c, err, "Failed to load fee record")
	}
	return c.JSON(fee)
}

// GetSummary godoc
// @Summary Fee totals
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.FeeSummary
// @Router /fees/summary [get]
func (h *FeeHandler) GetSummary(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	summary, err := h.fees.Summary(instituteID)
	if err != nil {
		return fail(c, err, "Failed to load fee summary")
	}
	return c.JSON(summary)
}

// RecordPayment godoc
// @Summary Record a payment
// @Description Payments may not exceed the outstanding balance
// @Tags Fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Fee ID"
// @Param request body models.PaymentRequest true "Payment"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /fees/{id}/payments [post]
func (h *FeeHandler) RecordPayment(c *fiber.Ctx) error {
	instituteID, userID, err := tenant(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid fee id")
	}

	var req models.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	fee, payment, err := h.fees.RecordPayment(instituteID, id, userID, &req)
	if err != nil {
		return fail(c, err, "Failed to record payment")
	}

	if h.audit != nil {
		h.audit.LogChange(c.UserContext(), auth.ActorFromCtx(c), audit.ActionCreate, "fee_payment", payment.ID.String(), nil, payment)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"fee":     fee,
		"payment": payment,
	})
}

// DownloadReceipt godoc
// @Summary Payment receipt
// @Description PDF receipt of one payment, or of the latest payment when payment_id is omitted
// @Tags Fees
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Fee ID"
// @Param payment_id query string false "Payment ID"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /fees/{id}/receipt [get]
func (h *FeeHandler) DownloadReceipt(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid fee id")
	}
	paymentID, ok := queryUUID(c, "payment_id")
	if !ok {
		return badRequest(c, "Invalid payment_id")
	}

	var buf bytes.Buffer
	fileName, err := h.fees.Receipt(instituteID, id, paymentID, &buf)
	if err != nil {
		return fail(c, err, "Failed to render receipt")
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
	return c.Send(buf.Bytes())
}

// SendReminder godoc
// @Summary Send a fee reminder on WhatsApp
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Param id path string true "Fee ID"
// @Success 200 {object} models.Message
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /fees/{id}/remind [post]
func (h *FeeHandler) SendReminder(c *fiber.Ctx) error {
	instituteID, userID, err := tenant(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid fee id")
	}

	msg, err := h.fees.Remind(c.UserContext(), instituteID, id, userID)
	if err != nil {
		return fail(c, err, "Failed to send reminder")
	}
	return c.JSON(msg)
}
