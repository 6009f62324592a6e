package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/adwelink/ams-api/internal/core/email"
)

type sentMail struct {
	to     string
	notice email.Notice
}

type fakeMailer struct {
	enabled bool
	failFor string
	sent    []sentMail
}

func (f *fakeMailer) Enabled() bool { return f.enabled }

func (f *fakeMailer) SendNotice(ctx context.Context, to string, n email.Notice) error {
	if to == f.failFor {
		return errors.New("boom")
	}
	f.sent = append(f.sent, sentMail{to: to, notice: n})
	return nil
}

func TestFollowUpsCopySuperAdmin(t *testing.T) {
	m := &fakeMailer{enabled: true}
	svc := NewService(m, "owner@adwelink.in")

	admins := []AdminContact{{Name: "Asha", Email: "asha@bright.in", InstituteName: "Bright"}}
	err := svc.NotifyFollowUpsDue(context.Background(), admins, []FollowUp{
		{LeadName: "Ravi", LeadPhone: "919876543210", FollowUpAt: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(m.sent) != 2 {
		t.Fatalf("sent %d mails, want 2", len(m.sent))
	}
	if m.sent[1].to != "owner@adwelink.in" || !strings.HasPrefix(m.sent[1].notice.Title, "[Bright]") {
		t.Errorf("super admin copy = %+v", m.sent[1])
	}
}

func TestNothingDueSendsNothing(t *testing.T) {
	m := &fakeMailer{enabled: true}
	svc := NewService(m, "")
	if err := svc.NotifyFeesOverdue(context.Background(), []AdminContact{{Email: "a@b.in"}}, nil); err != nil {
		t.Fatal(err)
	}
	if len(m.sent) != 0 {
		t.Errorf("sent %d mails", len(m.sent))
	}
}

func TestFailedAdminIsReported(t *testing.T) {
	m := &fakeMailer{enabled: true, failFor: "bad@b.in"}
	svc := NewService(m, "")

	err := svc.SendToInstituteAdmins(context.Background(),
		[]AdminContact{{Email: "bad@b.in"}, {Email: "good@b.in"}},
		email.Notice{Title: "t"})
	if err == nil || !strings.Contains(err.Error(), "bad@b.in") {
		t.Errorf("err = %v", err)
	}
	if len(m.sent) != 1 {
		t.Errorf("sent %d, want 1", len(m.sent))
	}
}

func TestDisabledMailer(t *testing.T) {
	m := &fakeMailer{enabled: false}
	svc := NewService(m, "owner@adwelink.in")
	if err := svc.NotifyNewSignup(context.Background(), "Bright", "a@b.in", "PILOT"); err != nil {
		t.Fatal(err)
	}
	if len(m.sent) != 0 {
		t.Error("disabled mailer sent mail")
	}
}
