package handlers

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adwelink/ams-api/internal/core/audit"
	"github.com/adwelink/ams-api/internal/core/auth"
	"github.com/adwelink/ams-api/internal/core/export"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxImportSize = 5 << 20

type LeadHandler struct {
	leads      *services.LeadService
	institutes *services.InstituteService
	audit      *audit.Service
}

func NewLeadHandler(leads *services.LeadService, institutes *services.InstituteService, auditSvc *audit.Service) *LeadHandler {
	return &LeadHandler{leads: leads, institutes: institutes, audit: auditSvc}
}

// leadFilter reads the list query string shared by list and export
func leadFilter(c *fiber.Ctx, instituteID uuid.UUID) (models.LeadFilter, error) {
	filter := models.LeadFilter{
		InstituteID: instituteID,
		Status:      c.Query("status"),
		Source:      c.Query("source"),
		Search:      strings.TrimSpace(c.Query("search")),
		Page:        c.QueryInt("page", 1),
		PageSize:    c.QueryInt("page_size", 20),
	}
	if filter.Status != "" && !models.ValidLeadStatus(filter.Status) {
		return filter, fmt.Errorf("invalid status %q", filter.Status)
	}
	var ok bool
	if filter.CourseID, ok = queryUUID(c, "course_id"); !ok {
		return filter, fmt.Errorf("invalid course_id")
	}
	if filter.AssignedTo, ok = queryUUID(c, "assigned_to"); !ok {
		return filter, fmt.Errorf("invalid assigned_to")
	}
	if filter.From, ok = queryTime(c, "from"); !ok {
		return filter, fmt.Errorf("invalid from date")
	}
	if filter.To, ok = queryTime(c, "to"); !ok {
		return filter, fmt.Errorf("invalid to date")
	}
	return filter, nil
}

// ListLeads godoc
// @Summary List leads
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param status query string false "new, follow_up, converted or lost"
// @Param source query string false "Lead source"
// @Param course_id query string false "Course ID"
// @Param assigned_to query string false "User ID"
// @Param search query string false "Name, phone or email"
// @Param from query string false "Created on or after"
// @Param to query string false "Created on or before"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} models.LeadListResponse
// @Failure 400 {object} map[string]interface{}
// @Router /leads [get]
func (h *LeadHandler) ListLeads(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	filter, err := leadFilter(c, instituteID)
	if err != nil {
		return badRequest(c, err.Error())
	}

	resp, err := h.leads.List(filter)
	if err != nil {
		return fail(c, err, "Failed to list leads")
	}
	return c.JSON(resp)
}

// CreateLead godoc
// @Summary Create a lead
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.LeadRequest true "Lead"
// @Success 201 {object} models.Lead
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /leads [post]
func (h *LeadHandler) CreateLead(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	var req models.LeadRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	lead, err := h.leads.Create(instituteID, &req)
	if err != nil {
		return fail(c, err, "Failed to create lead")
	}

	if h.audit != nil {
		h.audit.LogChange(c.UserContext(), auth.ActorFromCtx(c), audit.ActionCreate, "lead", lead.ID.String(), nil, lead)
	}
	return c.Status(fiber.StatusCreated).JSON(lead)
}

// GetLead godoc
// @Summary Get a lead
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} models.Lead
// @Failure 404 {object} map[string]interface{}
// @Router /leads/{id} [get]
func (h *LeadHandler) GetLead(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid lead id")
	}

	lead, err := h.leads.Get(instituteID, id)
	if err != nil {
		return fail(c, err, "Failed to load lead")
	}
	return c.JSON(lead)
}

// UpdateLead godoc
// @Summary Update a lead
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param request body models.LeadRequest true "Lead"
// @Success 200 {object} models.Lead
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /leads/{id} [put]
func (h *LeadHandler) UpdateLead(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid lead id")
	}

	var req models.LeadRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	before, err := h.leads.Get(instituteID, id)
	if err != nil {
		return fail(c, err, "Failed to load lead")
	}
	snapshot := *before

	lead, err := h.leads.Update(instituteID, id, &req)
	if err != nil {
		return fail(c, err, "Failed to update lead")
	}

	if h.audit != nil {
		h.audit.LogChange(c.UserContext(), auth.ActorFromCtx(c), audit.ActionUpdate, "lead", id.String(), snapshot, lead)
	}
	return c.JSON(lead)
}

// DeleteLead godoc
// @Summary Delete a lead
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /leads/{id} [delete]
func (h *LeadHandler) DeleteLead(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid lead id")
	}

	if err := h.leads.Delete(instituteID, id); err != nil {
		return fail(c, err, "Failed to delete lead")
	}

	if h.audit != nil {
		h.audit.LogAction(c.UserContext(), auth.ActorFromCtx(c), audit.ActionDelete, "lead", id.String(), "")
	}
	return c.JSON(fiber.Map{"message": "Lead deleted"})
}

// UpdateStatus godoc
// @Summary Change a lead's status
// @Description Any status may follow any other. Marking a lead lost needs a reason.
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param request body models.UpdateLeadStatusRequest true "New status"
// @Success 200 {object} models.Lead
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /leads/{id}/status [patch]
func (h *LeadHandler) UpdateStatus(c *fiber.Ctx) error {
	instituteID, userID, err := tenant(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid lead id")
	}

	var req models.UpdateLeadStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	lead, err := h.leads.UpdateStatus(instituteID, id, userID, &req)
	if err != nil {
		return fail(c, err, "Failed to update lead status")
	}

	if h.audit != nil {
		h.audit.LogAction(c.UserContext(), auth.ActorFromCtx(c), audit.ActionStatus, "lead", id.String(), "status "+req.Status)
	}
	return c.JSON(lead)
}

// ListNotes godoc
// @Summary Lead activity timeline
// @Description Notes and status changes, newest first
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /leads/{id}/notes [get]
func (h *LeadHandler) ListNotes(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid lead id")
	}

	activities, err := h.leads.Activities(instituteID, id)
	if err != nil {
		return fail(c, err, "Failed to load notes")
	}
	return c.JSON(fiber.Map{
		"activities": activities,
		"total":      len(activities),
	})
}

// AddNote godoc
// @Summary Add a note to a lead
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param request body models.AddNoteRequest true "Note"
// @Success 201 {object} models.LeadActivity
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /leads/{id}/notes [post]
func (h *LeadHandler) AddNote(c *fiber.Ctx) error {
	instituteID, userID, err := tenant(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid lead id")
	}

	var req models.AddNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	note, err := h.leads.AddNote(instituteID, id, userID, req.Content)
	if err != nil {
		return fail(c, err, "Failed to add note")
	}
	return c.Status(fiber.StatusCreated).JSON(note)
}

// GetStats godoc
// @Summary Lead statistics
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.LeadStats
// @Router /leads/stats [get]
func (h *LeadHandler) GetStats(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	stats, err := h.leads.Stats(c.UserContext(), instituteID)
	if err != nil {
		return fail(c, err, "Failed to load lead statistics")
	}
	return c.JSON(stats)
}

// ExportLeads godoc
// @Summary Export leads
// @Description Download the filtered lead list as xlsx, csv or pdf
// @Tags Leads
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "xlsx, csv or pdf" default(xlsx)
// @Param status query string false "Lead status"
// @Param search query string false "Name, phone or email"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]interface{}
// @Router /leads/export [get]
func (h *LeadHandler) ExportLeads(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	filter, err := leadFilter(c, instituteID)
	if err != nil {
		return badRequest(c, err.Error())
	}
	institute, err := h.institutes.Get(instituteID)
	if err != nil {
		return fail(c, err, "Failed to load institute")
	}

	var buf bytes.Buffer
	contentType, fileName, err := h.leads.Export(filter, format, institute.Name, &buf)
	if err != nil {
		return fail(c, err, "Failed to export leads")
	}

	if h.audit != nil {
		h.audit.LogAction(c.UserContext(), auth.ActorFromCtx(c), audit.ActionExport, "lead", "", string(format))
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
	return c.Send(buf.Bytes())
}

// ImportLeads godoc
// @Summary Import leads from CSV
// @Description Columns: name, phone, email, course, source, status, follow_up_at, notes, created_at. Duplicate phones are skipped and reported.
// @Tags Leads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV file"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} map[string]interface{}
// @Router /leads/import [post]
func (h *LeadHandler) ImportLeads(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	header, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}
	if header.Size > maxImportSize {
		return badRequest(c, "file is larger than 5 MB")
	}

	file, err := header.Open()
	if err != nil {
		return badRequest(c, "Failed to read file")
	}
	defer file.Close()

	result, err := h.leads.Import(instituteID, file)
	if err != nil {
		return fail(c, err, "Failed to import leads")
	}

	log.Info().
		Str("institute_id", instituteID.String()).
		Int("imported", result.Imported).
		Int("duplicates", len(result.Duplicates)).
		Int("errors", len(result.Errors)).
		Msg("📥 Lead import finished")

	if h.audit != nil {
		h.audit.LogAction(c.UserContext(), auth.ActorFromCtx(c), audit.ActionImport, "lead", "",
			fmt.Sprintf("%d imported, %d duplicates", result.Imported, len(result.Duplicates)))
	}
	return c.JSON(result)
}
