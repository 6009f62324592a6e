package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/adwelink/ams-api/internal/shared/database/dbtest"
	"github.com/google/uuid"
)

func TestGetLogsFiltersByInstitute(t *testing.T) {
	db := dbtest.New(t, &AuditLog{})
	svc := NewService(db)
	ctx := context.Background()

	instA, instB := uuid.New(), uuid.New()
	svc.LogAction(ctx, Actor{InstituteID: &instA}, ActionCreate, "lead", "1", "")
	svc.LogAction(ctx, Actor{InstituteID: &instA}, ActionUpdate, "lead", "1", "")
	svc.LogChange(ctx, Actor{InstituteID: &instB}, ActionUpdate, "course", "2", map[string]int{"fee": 1}, map[string]int{"fee": 2})

	res, err := svc.GetLogs(AuditFilter{InstituteID: &instA})
	if err != nil {
		t.Fatalf("GetLogs: %v", err)
	}
	if res.TotalCount != 2 || len(res.Logs) != 2 {
		t.Fatalf("got %d logs (total %d), want 2", len(res.Logs), res.TotalCount)
	}

	res, err = svc.GetLogs(AuditFilter{EntityType: "course"})
	if err != nil {
		t.Fatalf("GetLogs: %v", err)
	}
	if res.TotalCount != 1 {
		t.Fatalf("course logs = %d, want 1", res.TotalCount)
	}
	if string(res.Logs[0].NewValues) != `{"fee":2}` {
		t.Errorf("NewValues = %s", res.Logs[0].NewValues)
	}
}

func TestGetLogsPagination(t *testing.T) {
	db := dbtest.New(t, &AuditLog{})
	svc := NewService(db)

	for i := 0; i < 5; i++ {
		svc.LogAction(context.Background(), Actor{}, ActionLogin, "user", "", "")
	}

	res, err := svc.GetLogs(AuditFilter{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("GetLogs: %v", err)
	}
	if len(res.Logs) != 2 || res.TotalPages != 3 {
		t.Errorf("page 2: %d logs, %d pages; want 2 logs, 3 pages", len(res.Logs), res.TotalPages)
	}
}

func TestDeleteOldLogs(t *testing.T) {
	db := dbtest.New(t, &AuditLog{})
	svc := NewService(db)

	old := &AuditLog{Action: ActionLogin, EntityType: "user", CreatedAt: time.Now().AddDate(0, 0, -100)}
	if err := svc.Log(context.Background(), old); err != nil {
		t.Fatal(err)
	}
	svc.LogAction(context.Background(), Actor{}, ActionLogin, "user", "", "")

	n, err := svc.DeleteOldLogs(90)
	if err != nil {
		t.Fatalf("DeleteOldLogs: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
}

func TestLogChangeRedactsSecrets(t *testing.T) {
	db := dbtest.New(t, &AuditLog{})
	svc := NewService(db)

	type settings struct {
		PhoneNumberID string `json:"phone_number_id"`
		AccessToken   string `json:"access_token"`
	}
	svc.LogChange(context.Background(), Actor{}, ActionUpdate, "institute", "1", nil, settings{PhoneNumberID: "1099", AccessToken: "EAAG-secret"})

	res, err := svc.GetLogs(AuditFilter{EntityID: "1"})
	if err != nil || len(res.Logs) != 1 {
		t.Fatalf("GetLogs = %v, %v", res, err)
	}
	got := string(res.Logs[0].NewValues)
	if strings.Contains(got, "EAAG-secret") || !strings.Contains(got, "1099") {
		t.Errorf("NewValues = %s", got)
	}
}
