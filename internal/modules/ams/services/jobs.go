package services

import (
	"context"
	"fmt"
	"time"

	"github.com/adwelink/ams-api/internal/core/notification"
	"github.com/adwelink/ams-api/internal/core/scheduler"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/repositories"
	"github.com/adwelink/ams-api/internal/shared/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	reminderLeadDays  = 3
	reminderCooldown  = 20 * time.Hour
	auditRetentionDay = 365
)

// AdminNotifier emails institute admins. notification.Service satisfies it.
type AdminNotifier interface {
	NotifyFollowUpsDue(ctx context.Context, admins []notification.AdminContact, due []notification.FollowUp) error
	NotifyFeesOverdue(ctx context.Context, admins []notification.AdminContact, overdue []notification.OverdueFee) error
}

// AuditPruner deletes audit rows older than a retention window
type AuditPruner interface {
	DeleteOldLogs(retentionDays int) (int64, error)
}

// JobService holds the periodic jobs of the console
type JobService struct {
	leads      repositories.LeadRepo
	fees       repositories.FeeRepo
	institutes repositories.InstituteRepo
	feeSvc     *FeeService
	notifier   AdminNotifier
	audit      AuditPruner
	now        func() time.Time
}

func NewJobService(
	leads repositories.LeadRepo,
	fees repositories.FeeRepo,
	institutes repositories.InstituteRepo,
	feeSvc *FeeService,
	notifier AdminNotifier,
	audit AuditPruner,
) *JobService {
	return &JobService{
		leads:      leads,
		fees:       fees,
		institutes: institutes,
		feeSvc:     feeSvc,
		notifier:   notifier,
		audit:      audit,
		now:        time.Now,
	}
}

// Register adds the jobs to s
func (j *JobService) Register(s *scheduler.Scheduler, followUpSpec, feeSpec string) error {
	if err := s.Add("follow-ups-due", followUpSpec, j.FollowUpsDue); err != nil {
		return err
	}
	if err := s.Add("fee-reminders", feeSpec, j.FeeReminders); err != nil {
		return err
	}
	if j.audit != nil {
		if err := s.Add("audit-retention", "0 30 3 * * *", j.PruneAudit); err != nil {
			return err
		}
	}
	return nil
}

// FollowUpsDue emails each institute's admins the leads whose follow-up
// time has arrived. Each lead is reported once.
func (j *JobService) FollowUpsDue(ctx context.Context) error {
	now := j.now()
	due, err := j.leads.DueFollowUps(now)
	if err != nil {
		return fmt.Errorf("failed to load due follow-ups: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	byInstitute := map[uuid.UUID][]models.Lead{}
	for _, l := range due {
		byInstitute[l.InstituteID] = append(byInstitute[l.InstituteID], l)
	}

	for instituteID, leads := range byInstitute {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		admins, err := j.institutes.AdminContacts(instituteID)
		if err != nil {
			utils.LogError("❌ Failed to load admin contacts", err, map[string]interface{}{"institute_id": instituteID})
			continue
		}

		items := make([]notification.FollowUp, 0, len(leads))
		ids := make([]uuid.UUID, 0, len(leads))
		for _, l := range leads {
			item := notification.FollowUp{LeadName: l.Name, LeadPhone: l.Phone, FollowUpAt: *l.FollowUpAt}
			if l.Course != nil {
				item.Course = l.Course.Name
			}
			items = append(items, item)
			ids = append(ids, l.ID)
		}

		if err := j.notifier.NotifyFollowUpsDue(ctx, admins, items); err != nil {
			utils.LogError("❌ Failed to send follow-up notice", err, map[string]interface{}{"institute_id": instituteID})
			continue
		}
		if err := j.leads.MarkFollowUpsNotified(ids, now); err != nil {
			log.Error().Err(err).Msg("❌ Failed to mark follow-ups notified")
		}
	}

	utils.LogInfo("⏰ Follow-up notices sent", map[string]interface{}{"leads": len(due), "institutes": len(byInstitute)})
	return nil
}

// FeeReminders marks overdue records, sends WhatsApp reminders for fees
// due within three days and emails admins the overdue list.
func (j *JobService) FeeReminders(ctx context.Context) error {
	now := j.now()

	marked, err := j.fees.MarkOverdue(now)
	if err != nil {
		return fmt.Errorf("failed to mark overdue fees: %w", err)
	}

	upcoming, err := j.fees.DueBetween(now, now.AddDate(0, 0, reminderLeadDays))
	if err != nil {
		return fmt.Errorf("failed to load upcoming fees: %w", err)
	}

	institutes := map[uuid.UUID]*models.Institute{}
	instituteFor := func(id uuid.UUID) *models.Institute {
		if inst, ok := institutes[id]; ok {
			return inst
		}
		inst, err := j.institutes.GetByID(id)
		if err != nil {
			inst = nil
		}
		institutes[id] = inst
		return inst
	}

	sent := 0
	for _, fee := range upcoming {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if fee.StudentPhone == "" {
			continue
		}
		if fee.LastReminderAt != nil && now.Sub(*fee.LastReminderAt) < reminderCooldown {
			continue
		}
		inst := instituteFor(fee.InstituteID)
		if inst == nil || inst.IsSuspended() || !inst.HasWhatsApp() {
			continue
		}
		if _, err := j.feeSvc.Remind(ctx, fee.InstituteID, fee.ID, nil); err != nil {
			utils.LogWarn("⚠️ Fee reminder failed", map[string]interface{}{"fee_id": fee.ID, "error": err.Error()})
			continue
		}
		sent++
	}

	overdue, err := j.fees.Overdue()
	if err != nil {
		return fmt.Errorf("failed to load overdue fees: %w", err)
	}
	byInstitute := map[uuid.UUID][]notification.OverdueFee{}
	for _, fee := range overdue {
		byInstitute[fee.InstituteID] = append(byInstitute[fee.InstituteID], notification.OverdueFee{
			StudentName: fee.StudentName,
			Outstanding: utils.FormatINR(fee.Outstanding()),
			DueDate:     fee.DueDate,
		})
	}
	for instituteID, items := range byInstitute {
		inst := instituteFor(instituteID)
		if inst == nil || inst.IsSuspended() {
			continue
		}
		admins, err := j.institutes.AdminContacts(instituteID)
		if err != nil {
			utils.LogError("❌ Failed to load admin contacts", err, map[string]interface{}{"institute_id": instituteID})
			continue
		}
		if err := j.notifier.NotifyFeesOverdue(ctx, admins, items); err != nil {
			utils.LogError("❌ Failed to send overdue notice", err, map[string]interface{}{"institute_id": instituteID})
		}
	}

	log.Info().Int64("marked_overdue", marked).Int("reminders", sent).Int("overdue", len(overdue)).Msg("💸 Fee reminder run finished")
	return nil
}

func (j *JobService) PruneAudit(ctx context.Context) error {
	n, err := j.audit.DeleteOldLogs(auditRetentionDay)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("🧹 Old audit logs pruned")
	}
	return nil
}
