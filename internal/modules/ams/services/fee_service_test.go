package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/adwelink/ams-api/internal/core/notification"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/google/uuid"
)

func TestFeeLifecycle(t *testing.T) {
	e := newEnv(t)
	inst := e.institute(t, "fees")
	lead, _ := e.leads.Create(inst.ID, &models.LeadRequest{Name: "Anu", Phone: "919877777777"})
	leadID := lead.ID.String()

	fee, err := e.fees.Create(inst.ID, &models.FeeRequest{LeadID: &leadID, TotalAmount: 15000, DueDate: time.Now().AddDate(0, 1, 0).Format("2006-01-02")})
	if err != nil {
		t.Fatal(err)
	}
	if fee.StudentName != "Anu" || fee.StudentPhone != "919877777777" || fee.Status != models.FeeStatusPending {
		t.Errorf("fee = %+v", fee)
	}

	var verr *ValidationError
	if _, _, err := e.fees.RecordPayment(inst.ID, fee.ID, nil, &models.PaymentRequest{Amount: 20000}); !errors.As(err, &verr) {
		t.Errorf("overpayment err = %v", err)
	}

	updated, payment, err := e.fees.RecordPayment(inst.ID, fee.ID, nil, &models.PaymentRequest{Amount: 5000, Method: "UPI", Reference: "UTR123"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.FeeStatusPartial || updated.PaidAmount != 5000 || len(updated.Payments) != 1 {
		t.Errorf("after payment = %+v", updated)
	}
	if !strings.HasPrefix(payment.ReceiptNo, "RCP-") {
		t.Errorf("receipt no = %q", payment.ReceiptNo)
	}

	var pdf bytes.Buffer
	name, err := e.fees.Receipt(inst.ID, fee.ID, nil, &pdf)
	if err != nil {
		t.Fatal(err)
	}
	if name != payment.ReceiptNo+".pdf" || !bytes.HasPrefix(pdf.Bytes(), []byte("%PDF")) {
		t.Errorf("receipt = %s (%d bytes)", name, pdf.Len())
	}

	summary, _ := e.fees.Summary(inst.ID)
	if summary.Outstanding != 10000 || !strings.Contains(summary.OutstandingText, "10,000") {
		t.Errorf("summary = %+v", summary)
	}

	if _, err := e.fees.Remind(context.Background(), inst.ID, fee.ID, nil); err != nil {
		t.Fatal(err)
	}
	sent := e.sender.Sent()
	if len(sent) != 1 || sent[0].To != "919877777777" || !strings.Contains(sent[0].Body, "10,000") {
		t.Errorf("reminder = %+v", sent)
	}
}

type fakeNotifier struct {
	followUps []notification.FollowUp
	overdue   []notification.OverdueFee
	admins    []notification.AdminContact
}

func (f *fakeNotifier) NotifyFollowUpsDue(ctx context.Context, admins []notification.AdminContact, due []notification.FollowUp) error {
	f.admins = admins
	f.followUps = append(f.followUps, due...)
	return nil
}

func (f *fakeNotifier) NotifyFeesOverdue(ctx context.Context, admins []notification.AdminContact, overdue []notification.OverdueFee) error {
	f.overdue = append(f.overdue, overdue...)
	return nil
}

func TestJobs(t *testing.T) {
	e := newEnv(t)
	inst := e.institute(t, "jobs")
	notifier := &fakeNotifier{}
	jobs := NewJobService(e.leadRepo, e.feeRepo, e.instituteRepo, e.fees, notifier, nil)
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Hour).Format("2006-01-02 15:04:05")
	lead, _ := e.leads.Create(inst.ID, &models.LeadRequest{Name: "Due", Phone: "5550001"})
	e.leads.UpdateStatus(inst.ID, lead.ID, nil, &models.UpdateLeadStatusRequest{Status: models.LeadStatusFollowUp, FollowUpAt: past})

	if err := jobs.FollowUpsDue(ctx); err != nil {
		t.Fatal(err)
	}
	jobs.FollowUpsDue(ctx)
	if len(notifier.followUps) != 1 || notifier.followUps[0].LeadName != "Due" {
		t.Errorf("follow-ups = %+v", notifier.followUps)
	}

	e.feeRepo.Create(&models.FeeRecord{InstituteID: inst.ID, StudentName: "Late", StudentPhone: "5550002", TotalAmount: 1000,
		DueDate: now.AddDate(0, 0, -2), Status: models.FeeStatusPending})
	e.feeRepo.Create(&models.FeeRecord{InstituteID: inst.ID, StudentName: "Soon", StudentPhone: "5550003", TotalAmount: 1000,
		DueDate: now.AddDate(0, 0, 2), Status: models.FeeStatusPending})

	if err := jobs.FeeReminders(ctx); err != nil {
		t.Fatal(err)
	}
	if len(notifier.overdue) != 1 || notifier.overdue[0].StudentName != "Late" {
		t.Errorf("overdue = %+v", notifier.overdue)
	}
	sent := e.sender.Sent()
	if len(sent) != 1 || sent[0].To != "5550003" {
		t.Errorf("reminders = %+v", sent)
	}

	// second run inside the cooldown sends nothing new
	jobs.FeeReminders(ctx)
	if len(e.sender.Sent()) != 1 {
		t.Errorf("reminder resent: %+v", e.sender.Sent())
	}
}

func TestConversationReplyRequiresWhatsApp(t *testing.T) {
	e := newEnv(t)
	inst := &models.Institute{Name: "No WA", Slug: "nowa", Plan: models.PlanPilot, Status: models.InstituteStatusActive}
	e.instituteRepo.Create(inst)
	conv, _ := e.convRepo.GetOrCreate(inst.ID, "5551234", "")

	if _, err := e.convs.Reply(context.Background(), inst.ID, conv.ID, nil, "hi"); !errors.Is(err, ErrWhatsAppNotConfigured) {
		t.Errorf("err = %v", err)
	}
	if _, err := e.convs.Pause(inst.ID, uuid.New()); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("pause unknown err = %v", err)
	}
}

func TestDashboards(t *testing.T) {
	e := newEnv(t)
	inst := e.institute(t, "dash")
	e.leads.Create(inst.ID, &models.LeadRequest{Name: "A", Phone: "1"})
	b, _ := e.leads.Create(inst.ID, &models.LeadRequest{Name: "B", Phone: "2"})
	e.leads.UpdateStatus(inst.ID, b.ID, nil, &models.UpdateLeadStatusRequest{Status: models.LeadStatusConverted})

	d, err := e.dashboard.Institute(context.Background(), inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.Leads.Total != 2 || d.Leads.Converted != 1 || d.ConversionRate != 50 || d.Leads.NewThisWeek != 2 {
		t.Errorf("dashboard leads = %+v rate %.1f", d.Leads, d.ConversionRate)
	}
	if len(d.LeadTrend) != 7 {
		t.Errorf("trend buckets = %d", len(d.LeadTrend))
	}

	p, err := e.dashboard.Platform(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p.Institutes.Total != 1 || p.TotalLeads != 2 {
		t.Errorf("platform = %+v", p)
	}
}
