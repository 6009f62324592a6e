package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/adwelink/ams-api/internal/core/analytics"
	"github.com/adwelink/ams-api/internal/core/export"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/repositories"
	"github.com/adwelink/ams-api/internal/shared/utils"
	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const maxImportRows = 5000

type LeadService struct {
	repo       repositories.LeadRepo
	courses    repositories.CourseRepo
	aggregator *analytics.Aggregator
	exporter   *export.Service
	now        func() time.Time
}

func NewLeadService(repo repositories.LeadRepo, courses repositories.CourseRepo, aggregator *analytics.Aggregator, exporter *export.Service) *LeadService {
	return &LeadService{
		repo:       repo,
		courses:    courses,
		aggregator: aggregator,
		exporter:   exporter,
		now:        time.Now,
	}
}

func (s *LeadService) List(filter models.LeadFilter) (*models.LeadListResponse, error) {
	leads, total, err := s.repo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	page, size, _ := repositories.Paginate(filter.Page, filter.PageSize)
	return &models.LeadListResponse{
		Leads:      leads,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: repositories.TotalPages(total, size),
	}, nil
}

func (s *LeadService) Get(instituteID, id uuid.UUID) (*models.Lead, error) {
	lead, err := s.repo.GetByID(instituteID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	return lead, nil
}

func (s *LeadService) Create(instituteID uuid.UUID, req *models.LeadRequest) (*models.Lead, error) {
	lead := &models.Lead{
		InstituteID: instituteID,
		Status:      models.LeadStatusFresh,
	}
	if err := s.apply(lead, req); err != nil {
		return nil, err
	}
	if lead.Source == "" {
		lead.Source = models.LeadSourceOther
	}

	if _, err := s.repo.GetByPhone(instituteID, lead.Phone); err == nil {
		return nil, ErrLeadExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := s.repo.Create(lead); err != nil {
		if errors.Is(err, repositories.ErrDuplicateLead) {
			return nil, ErrLeadExists
		}
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	log.Info().Str("institute_id", instituteID.String()).Str("lead_id", lead.ID.String()).Str("source", lead.Source).Msg("✅ Lead created")
	return lead, nil
}

func (s *LeadService) Update(instituteID, id uuid.UUID, req *models.LeadRequest) (*models.Lead, error) {
	lead, err := s.Get(instituteID, id)
	if err != nil {
		return nil, err
	}
	oldPhone := lead.Phone
	if err := s.apply(lead, req); err != nil {
		return nil, err
	}

	if lead.Phone != oldPhone {
		if other, err := s.repo.GetByPhone(instituteID, lead.Phone); err == nil && other.ID != lead.ID {
			return nil, ErrLeadExists
		}
	}

	lead.Course = nil
	if err := s.repo.Save(lead); err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	return s.Get(instituteID, id)
}

// apply validates req and copies it onto lead
func (s *LeadService) apply(lead *models.Lead, req *models.LeadRequest) error {
	name := strings.TrimSpace(req.Name)
	phone := utils.NormalizePhone(req.Phone)
	if name == "" {
		return invalid("name", "is required")
	}
	if phone == "" {
		return invalid("phone", "is required")
	}
	if req.Source != "" && !models.ValidLeadSource(req.Source) {
		return invalid("source", "unknown source")
	}

	lead.Name = name
	lead.Phone = phone
	lead.Email = strings.ToLower(strings.TrimSpace(req.Email))
	lead.Notes = strings.TrimSpace(req.Notes)
	if req.Source != "" {
		lead.Source = req.Source
	}

	lead.CourseID = nil
	if req.CourseID != nil && *req.CourseID != "" {
		courseID, err := uuid.Parse(*req.CourseID)
		if err != nil {
			return invalid("course_id", "invalid id")
		}
		if _, err := s.courses.GetByID(lead.InstituteID, courseID); err != nil {
			return invalid("course_id", "course not found")
		}
		lead.CourseID = &courseID
	}

	lead.AssignedTo = nil
	if req.AssignedTo != nil && *req.AssignedTo != "" {
		userID, err := uuid.Parse(*req.AssignedTo)
		if err != nil {
			return invalid("assigned_to", "invalid id")
		}
		lead.AssignedTo = &userID
	}

	lead.FollowUpAt = nil
	if req.FollowUpAt != "" {
		at, err := dateparse.ParseLocal(req.FollowUpAt)
		if err != nil {
			return invalid("follow_up_at", "unrecognised date")
		}
		lead.FollowUpAt = &at
		lead.FollowUpNotifiedAt = nil
	}
	return nil
}

func (s *LeadService) Delete(instituteID, id uuid.UUID) error {
	if err := s.repo.Delete(instituteID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLeadNotFound
		}
		return err
	}
	return nil
}

// UpdateStatus moves a lead to any status. lost needs a reason. A
// follow-up time may be set along with the change.
func (s *LeadService) UpdateStatus(instituteID, id uuid.UUID, userID *uuid.UUID, req *models.UpdateLeadStatusRequest) (*models.Lead, error) {
	if !models.ValidLeadStatus(req.Status) {
		return nil, invalid("status", "must be one of "+strings.Join(models.LeadStatuses, ", "))
	}
	reason := strings.TrimSpace(req.Reason)
	if req.Status == models.LeadStatusLost && reason == "" {
		return nil, ErrLostReasonRequired
	}

	lead, err := s.Get(instituteID, id)
	if err != nil {
		return nil, err
	}

	from := lead.Status
	lead.Status = req.Status
	lead.Course = nil
	if req.Status == models.LeadStatusLost {
		lead.LostReason = reason
	} else {
		lead.LostReason = ""
	}
	if req.FollowUpAt != "" {
		at, err := dateparse.ParseLocal(req.FollowUpAt)
		if err != nil {
			return nil, invalid("follow_up_at", "unrecognised date")
		}
		lead.FollowUpAt = &at
		lead.FollowUpNotifiedAt = nil
	}

	activity := &models.LeadActivity{
		LeadID:     lead.ID,
		UserID:     userID,
		Type:       models.ActivityStatusChange,
		Content:    reason,
		FromStatus: from,
		ToStatus:   req.Status,
	}
	if err := s.repo.UpdateStatus(lead, activity); err != nil {
		return nil, fmt.Errorf("failed to update lead status: %w", err)
	}

	log.Info().Str("lead_id", id.String()).Str("from", from).Str("to", req.Status).Msg("🔄 Lead status changed")
	return s.Get(instituteID, id)
}

func (s *LeadService) AddNote(instituteID, id uuid.UUID, userID *uuid.UUID, content string) (*models.LeadActivity, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("content", "is required")
	}
	if _, err := s.Get(instituteID, id); err != nil {
		return nil, err
	}

	activity := &models.LeadActivity{
		LeadID:  id,
		UserID:  userID,
		Type:    models.ActivityNote,
		Content: content,
	}
	if err := s.repo.AddActivity(activity); err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}
	return activity, nil
}

func (s *LeadService) Activities(instituteID, id uuid.UUID) ([]models.LeadActivity, error) {
	if _, err := s.Get(instituteID, id); err != nil {
		return nil, err
	}
	return s.repo.ListActivities(id)
}

func (s *LeadService) Stats(ctx context.Context, instituteID uuid.UUID) (*models.LeadStats, error) {
	scope := analytics.Filter{"institute_id": instituteID}

	byStatus, err := s.aggregator.CountBy(ctx, "leads", "status", scope)
	if err != nil {
		return nil, err
	}
	bySource, err := s.aggregator.CountBy(ctx, "leads", "source", scope)
	if err != nil {
		return nil, err
	}

	stats := &models.LeadStats{ByStatus: map[string]int64{}, BySource: bySource}
	for _, status := range models.LeadStatuses {
		stats.ByStatus[status] = byStatus[status]
		stats.Total += byStatus[status]
	}
	stats.ConversionRate = ConversionRate(stats.ByStatus[models.LeadStatusConverted], stats.Total)
	return stats, nil
}

// ConversionRate is converted/total as a percentage rounded to 0.1
func ConversionRate(converted, total int64) float64 {
	if total == 0 {
		return 0
	}
	rate := float64(converted) / float64(total) * 100
	return float64(int64(rate*10+0.5)) / 10
}

// CaptureFromWhatsApp returns the lead for a WhatsApp contact, creating a
// fresh one the first time the number writes in.
func (s *LeadService) CaptureFromWhatsApp(instituteID uuid.UUID, phone, name string) (*models.Lead, bool, error) {
	phone = utils.NormalizePhone(phone)
	lead, err := s.repo.GetByPhone(instituteID, phone)
	if err == nil {
		return lead, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if strings.TrimSpace(name) == "" {
		name = "WhatsApp " + phone
	}
	now := s.now()
	lead = &models.Lead{
		InstituteID:     instituteID,
		Name:            strings.TrimSpace(name),
		Phone:           phone,
		Source:          models.LeadSourceWhatsApp,
		Status:          models.LeadStatusFresh,
		LastContactedAt: &now,
	}
	if err := s.repo.Create(lead); err != nil {
		if errors.Is(err, repositories.ErrDuplicateLead) {
			// another worker captured the same contact first
			existing, err := s.repo.GetByPhone(instituteID, phone)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create whatsapp lead: %w", err)
	}
	log.Info().Str("institute_id", instituteID.String()).Str("lead_id", lead.ID.String()).Msg("🆕 Lead captured from WhatsApp")
	return lead, true, nil
}

func (s *LeadService) TouchContacted(leadID uuid.UUID) {
	if err := s.repo.TouchContacted(leadID, s.now()); err != nil {
		log.Warn().Err(err).Str("lead_id", leadID.String()).Msg("⚠️ Failed to update last_contacted_at")
	}
}

// Export writes the filtered leads in format and returns content type and
// file name
func (s *LeadService) Export(filter models.LeadFilter, format export.Format, instituteName string, w io.Writer) (string, string, error) {
	leads, err := s.repo.ListForExport(filter)
	if err != nil {
		return "", "", fmt.Errorf("failed to load leads: %w", err)
	}

	table := &export.Table{
		Title:    "Leads",
		Subtitle: instituteName,
		Headers:  []string{"Name", "Phone", "Email", "Course", "Source", "Status", "Follow-up", "Lost Reason", "Notes", "Created"},
	}
	for _, l := range leads {
		course := ""
		if l.Course != nil {
			course = l.Course.Name
		}
		table.Rows = append(table.Rows, []interface{}{
			l.Name, l.Phone, l.Email, course, l.Source, l.Status, l.FollowUpAt, l.LostReason, l.Notes, l.CreatedAt,
		})
	}
	return s.exporter.Export(format, table, "leads", w)
}

// Import reads leads from CSV. Rows whose phone already exists, in the
// database or earlier in the file, are skipped and reported.
func (s *LeadService) Import(instituteID uuid.UUID, r io.Reader) (*models.ImportResult, error) {
	var rows []*models.LeadImportRow
	if err := export.UnmarshalRecords(r, &rows); err != nil {
		return nil, invalid("file", "could not read CSV: "+err.Error())
	}
	if len(rows) > maxImportRows {
		return nil, invalid("file", fmt.Sprintf("at most %d rows per import", maxImportRows))
	}

	result := &models.ImportResult{Duplicates: []string{}, Errors: []models.ImportError{}}
	seen := make(map[string]bool, len(rows))
	courseIDs := map[string]*uuid.UUID{}

	for i, row := range rows {
		line := i + 2 // header is line 1
		name := strings.TrimSpace(row.Name)
		phone := utils.NormalizePhone(row.Phone)
		if name == "" || phone == "" {
			result.Errors = append(result.Errors, models.ImportError{Row: line, Reason: "name and phone are required"})
			continue
		}

		if seen[phone] {
			result.Duplicates = append(result.Duplicates, phone)
			continue
		}
		seen[phone] = true
		if _, err := s.repo.GetByPhone(instituteID, phone); err == nil {
			result.Duplicates = append(result.Duplicates, phone)
			continue
		}

		lead := &models.Lead{
			InstituteID: instituteID,
			Name:        name,
			Phone:       phone,
			Email:       strings.ToLower(strings.TrimSpace(row.Email)),
			Source:      models.LeadSourceImport,
			Status:      models.LeadStatusFresh,
			Notes:       strings.TrimSpace(row.Notes),
		}
		if src := strings.ToLower(strings.TrimSpace(row.Source)); models.ValidLeadSource(src) {
			lead.Source = src
		}
		if st := strings.ToLower(strings.TrimSpace(row.Status)); st != "" {
			if !models.ValidLeadStatus(st) {
				result.Errors = append(result.Errors, models.ImportError{Row: line, Reason: "unknown status " + st})
				continue
			}
			lead.Status = st
		}
		if row.FollowUpAt != "" {
			at, err := dateparse.ParseLocal(row.FollowUpAt)
			if err != nil {
				result.Errors = append(result.Errors, models.ImportError{Row: line, Reason: "unrecognised follow_up_at"})
				continue
			}
			lead.FollowUpAt = &at
		}
		if row.CreatedAt != "" {
			if at, err := dateparse.ParseLocal(row.CreatedAt); err == nil {
				lead.CreatedAt = at
			}
		}
		if course := strings.TrimSpace(row.Course); course != "" {
			key := strings.ToLower(course)
			id, cached := courseIDs[key]
			if !cached {
				if c, err := s.courses.FindByName(instituteID, course); err == nil {
					id = &c.ID
				}
				courseIDs[key] = id
			}
			lead.CourseID = id
		}

		if err := s.repo.Create(lead); err != nil {
			if errors.Is(err, repositories.ErrDuplicateLead) {
				result.Duplicates = append(result.Duplicates, phone)
				continue
			}
			result.Errors = append(result.Errors, models.ImportError{Row: line, Reason: err.Error()})
			continue
		}
		result.Imported++
	}

	log.Info().
		Str("institute_id", instituteID.String()).
		Int("imported", result.Imported).
		Int("duplicates", len(result.Duplicates)).
		Int("errors", len(result.Errors)).
		Msg("📥 Lead import finished")
	return result, nil
}
