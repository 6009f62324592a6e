package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/adwelink/ams-api/internal/core/export"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/google/uuid"
)

func TestLeadCreateValidatesAndRejectsDuplicates(t *testing.T) {
	e := newEnv(t)
	inst := e.institute(t, "leads")

	lead, err := e.leads.Create(inst.ID, &models.LeadRequest{Name: "Ravi", Phone: "+91 98111-11111", Source: models.LeadSourceWalkIn})
	if err != nil {
		t.Fatal(err)
	}
	if lead.Phone != "919811111111" || lead.Status != models.LeadStatusFresh {
		t.Errorf("lead = %+v", lead)
	}

	if _, err := e.leads.Create(inst.ID, &models.LeadRequest{Name: "Ravi again", Phone: "919811111111"}); !errors.Is(err, ErrLeadExists) {
		t.Errorf("duplicate err = %v", err)
	}

	var verr *ValidationError
	if _, err := e.leads.Create(inst.ID, &models.LeadRequest{Phone: "1"}); !errors.As(err, &verr) || verr.Field != "name" {
		t.Errorf("missing name err = %v", err)
	}
	if _, err := e.leads.Create(inst.ID, &models.LeadRequest{Name: "x", Phone: "1", Source: "billboard"}); !errors.As(err, &verr) {
		t.Errorf("bad source err = %v", err)
	}

	other := e.institute(t, "other")
	if _, err := e.leads.Get(other.ID, lead.ID); !errors.Is(err, ErrLeadNotFound) {
		t.Errorf("cross-tenant get err = %v", err)
	}
}

func TestLeadStatusTransitions(t *testing.T) {
	e := newEnv(t)
	inst := e.institute(t, "status")
	lead, _ := e.leads.Create(inst.ID, &models.LeadRequest{Name: "Meera", Phone: "1234"})
	user := uuid.New()

	if _, err := e.leads.UpdateStatus(inst.ID, lead.ID, &user, &models.UpdateLeadStatusRequest{Status: models.LeadStatusLost}); !errors.Is(err, ErrLostReasonRequired) {
		t.Errorf("lost without reason err = %v", err)
	}

	updated, err := e.leads.UpdateStatus(inst.ID, lead.ID, &user, &models.UpdateLeadStatusRequest{Status: models.LeadStatusLost, Reason: "joined another institute"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.LostReason != "joined another institute" {
		t.Errorf("lost reason = %q", updated.LostReason)
	}

	// lost leads can be revived
	updated, err = e.leads.UpdateStatus(inst.ID, lead.ID, &user, &models.UpdateLeadStatusRequest{Status: models.LeadStatusFollowUp, FollowUpAt: "2030-01-15 10:00"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.LostReason != "" || updated.FollowUpAt == nil {
		t.Errorf("revived lead = %+v", updated)
	}

	if _, err := e.leads.UpdateStatus(inst.ID, lead.ID, &user, &models.UpdateLeadStatusRequest{Status: "won"}); err == nil {
		t.Error("unknown status accepted")
	}

	activities, _ := e.leads.Activities(inst.ID, lead.ID)
	changes := 0
	for _, a := range activities {
		if a.Type == models.ActivityStatusChange {
			changes++
		}
	}
	if changes != 2 {
		t.Errorf("status_change activities = %d, want 2", changes)
	}
}

func TestLeadImport(t *testing.T) {
	e := newEnv(t)
	inst := e.institute(t, "import")
	e.courses.Create(inst.ID, &models.CourseRequest{Name: "JEE Foundation"})
	e.leads.Create(inst.ID, &models.LeadRequest{Name: "Existing", Phone: "9000000001"})

	csv := strings.Join([]string{
		"name,phone,email,course,source,status,follow_up_at,notes",
		"Asha,9000000001,,,,,,already in db",
		"Vikram,9000000002,V@x.in,jee foundation,referral,follow_up,2030-01-15 10:30,",
		"Vikram dup,9000000002,,,,,,",
		",9000000003,,,,,,",
		"Nisha,9000000004,,,,maybe,,",
	}, "\n")

	res, err := e.leads.Import(inst.ID, strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 1 {
		t.Errorf("imported = %d", res.Imported)
	}
	if len(res.Duplicates) != 2 {
		t.Errorf("duplicates = %v", res.Duplicates)
	}
	if len(res.Errors) != 2 {
		t.Errorf("errors = %+v", res.Errors)
	}

	vikram, err := e.leadRepo.GetByPhone(inst.ID, "9000000002")
	if err != nil {
		t.Fatal(err)
	}
	if vikram.CourseID == nil || vikram.Source != models.LeadSourceReferral || vikram.Status != models.LeadStatusFollowUp || vikram.FollowUpAt == nil {
		t.Errorf("imported lead = %+v", vikram)
	}
}

func TestLeadStatsAndExport(t *testing.T) {
	e := newEnv(t)
	inst := e.institute(t, "stats")
	for i, status := range []string{models.LeadStatusFresh, models.LeadStatusConverted, models.LeadStatusConverted, models.LeadStatusLost} {
		l, _ := e.leads.Create(inst.ID, &models.LeadRequest{Name: "L", Phone: string(rune('1' + i))})
		if status != models.LeadStatusFresh {
			e.leads.UpdateStatus(inst.ID, l.ID, nil, &models.UpdateLeadStatusRequest{Status: status, Reason: "r"})
		}
	}

	stats, err := e.leads.Stats(context.Background(), inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 4 || stats.ByStatus[models.LeadStatusConverted] != 2 || stats.ConversionRate != 50 {
		t.Errorf("stats = %+v", stats)
	}

	var buf bytes.Buffer
	contentType, name, err := e.leads.Export(models.LeadFilter{InstituteID: inst.ID}, export.FormatCSV, inst.Name, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(contentType, "text/csv") || !strings.HasSuffix(name, ".csv") {
		t.Errorf("export = %s %s", contentType, name)
	}
	if lines := strings.Count(strings.TrimSpace(buf.String()), "\n"); lines != 4 {
		t.Errorf("csv lines = %d, want header + 4", lines+1)
	}
}
