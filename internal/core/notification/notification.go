package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adwelink/ams-api/internal/core/email"
	"github.com/rs/zerolog/log"
)

// AdminContact is an institute admin that receives notices
type AdminContact struct {
	Name          string
	Email         string
	InstituteName string
}

// FollowUp is one due lead follow-up
type FollowUp struct {
	LeadName   string
	LeadPhone  string
	Course     string
	FollowUpAt time.Time
}

// OverdueFee is one unpaid fee record past its due date
type OverdueFee struct {
	StudentName string
	Outstanding string
	DueDate     time.Time
}

// Mailer is the part of email.Service the notifier needs
type Mailer interface {
	Enabled() bool
	SendNotice(ctx context.Context, to string, notice email.Notice) error
}

// Service sends institute-admin notices by email and copies the platform
// owner when SUPER_ADMIN_EMAIL is set.
type Service struct {
	mailer          Mailer
	superAdminEmail string
}

// NewService creates a new notification service
func NewService(mailer Mailer, superAdminEmail string) *Service {
	return &Service{
		mailer:          mailer,
		superAdminEmail: superAdminEmail,
	}
}

// SendToInstituteAdmins sends a notice to every admin, then a single copy to
// the super admin.
func (s *Service) SendToInstituteAdmins(ctx context.Context, admins []AdminContact, notice email.Notice) error {
	if s.mailer == nil || !s.mailer.Enabled() {
		log.Debug().Str("subject", notice.Title).Msg("📭 email disabled, notice dropped")
		return nil
	}

	var failed []string
	for _, admin := range admins {
		if admin.Email == "" {
			continue
		}
		if err := s.mailer.SendNotice(ctx, admin.Email, notice); err != nil {
			log.Error().Err(err).Str("to", admin.Email).Msg("❌ Failed to email institute admin")
			failed = append(failed, admin.Email)
			continue
		}
		log.Info().Str("to", admin.Email).Str("subject", notice.Title).Msg("✅ Email notification sent")
	}

	if s.superAdminEmail != "" && len(admins) > 0 {
		copyNotice := notice
		copyNotice.Title = fmt.Sprintf("[%s] %s", admins[0].InstituteName, notice.Title)
		if err := s.mailer.SendNotice(ctx, s.superAdminEmail, copyNotice); err != nil {
			log.Warn().Err(err).Msg("⚠️ Failed to email super admin")
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to notify %s", strings.Join(failed, ", "))
	}
	return nil
}

// NotifySuperAdmin sends a notice only to the platform owner
func (s *Service) NotifySuperAdmin(ctx context.Context, notice email.Notice) error {
	if s.superAdminEmail == "" || s.mailer == nil || !s.mailer.Enabled() {
		return nil
	}
	return s.mailer.SendNotice(ctx, s.superAdminEmail, notice)
}

// NotifyNewSignup tells the platform owner an institute joined via invite code
func (s *Service) NotifyNewSignup(ctx context.Context, instituteName, adminEmail, inviteCode string) error {
	return s.NotifySuperAdmin(ctx, email.Notice{
		Title:   "🎉 New institute signup: " + instituteName,
		Message: fmt.Sprintf("%s signed up with invite code %s.", instituteName, inviteCode),
		Details: []email.Detail{
			{Label: "Institute", Value: instituteName},
			{Label: "Admin email", Value: adminEmail},
			{Label: "Invite code", Value: inviteCode},
		},
	})
}

// NotifyFollowUpsDue lists leads whose follow-up time has arrived
func (s *Service) NotifyFollowUpsDue(ctx context.Context, admins []AdminContact, due []FollowUp) error {
	if len(due) == 0 {
		return nil
	}

	details := make([]email.Detail, 0, len(due))
	for _, f := range due {
		label := f.LeadName
		if label == "" {
			label = f.LeadPhone
		}
		value := f.LeadPhone + " | due " + f.FollowUpAt.Format("02 Jan 15:04")
		if f.Course != "" {
			value = f.Course + " | " + value
		}
		details = append(details, email.Detail{Label: label, Value: value})
	}

	return s.SendToInstituteAdmins(ctx, admins, email.Notice{
		Title:   fmt.Sprintf("⏰ %d lead follow-up(s) due", len(due)),
		Message: "The following leads are due for a follow-up call or message.",
		Details: details,
	})
}

// NotifyFeesOverdue lists fee records that just became overdue
func (s *Service) NotifyFeesOverdue(ctx context.Context, admins []AdminContact, overdue []OverdueFee) error {
	if len(overdue) == 0 {
		return nil
	}

	details := make([]email.Detail, 0, len(overdue))
	for _, f := range overdue {
		details = append(details, email.Detail{
			Label: f.StudentName,
			Value: fmt.Sprintf("%s outstanding, due %s", f.Outstanding, f.DueDate.Format("02 Jan 2006")),
		})
	}

	return s.SendToInstituteAdmins(ctx, admins, email.Notice{
		Title:   fmt.Sprintf("💸 %d fee payment(s) overdue", len(overdue)),
		Message: "These fee records are past their due date.",
		Details: details,
	})
}
