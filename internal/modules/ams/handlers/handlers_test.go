package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/adwelink/ams-api/internal/core/analytics"
	"github.com/adwelink/ams-api/internal/core/audit"
	"github.com/adwelink/ams-api/internal/core/auth"
	"github.com/adwelink/ams-api/internal/core/export"
	"github.com/adwelink/ams-api/internal/core/whatsapp"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/repositories"
	"github.com/adwelink/ams-api/internal/modules/ams/services"
	"github.com/adwelink/ams-api/internal/shared/database/dbtest"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type tokenTable map[string]*auth.TokenClaims

func (t tokenTable) ValidateToken(token string) (*auth.TokenClaims, error) {
	if claims, ok := t[token]; ok {
		return claims, nil
	}
	return nil, errors.New("unknown token")
}

type recordingDispatcher struct {
	mu       sync.Mutex
	payloads []*whatsapp.WebhookPayload
}

func (d *recordingDispatcher) Dispatch(payload *whatsapp.WebhookPayload) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payloads = append(d.payloads, payload)
	n := 0
	for _, e := range payload.Entry {
		for _, ch := range e.Changes {
			n += len(ch.Value.Messages) + len(ch.Value.Statuses)
		}
	}
	return n
}

type nopSender struct{}

func (nopSender) SendText(ctx context.Context, to, body string) (string, error) {
	return "wamid.test", nil
}

func (nopSender) MarkAsRead(ctx context.Context, messageID string) error { return nil }

type testServer struct {
	app        *fiber.App
	dispatcher *recordingDispatcher
	instA      *models.Institute
	instB      *models.Institute
}

const (
	tokenA     = "token-a"
	tokenB     = "token-b"
	tokenAdmin = "token-admin"
)

func newServer(t *testing.T, appSecret string) *testServer {
	t.Helper()
	db := dbtest.New(t, append(models.AllModels(), &auth.InstituteUser{}, &audit.AuditLog{})...)

	instituteRepo := repositories.NewInstituteRepo(db)
	inviteRepo := repositories.NewInviteCodeRepo(db)
	leadRepo := repositories.NewLeadRepo(db)
	courseRepo := repositories.NewCourseRepo(db)
	feeRepo := repositories.NewFeeRepo(db)
	convRepo := repositories.NewConversationRepo(db)
	msgRepo := repositories.NewMessageRepo(db)
	agg := analytics.NewAggregator(db)

	authSvc := auth.NewService(db, auth.NewJWTService("test-secret", 0, 0), nil)
	auditSvc := audit.NewService(db)
	institutes := services.NewInstituteService(instituteRepo, func(whatsapp.Credentials) (whatsapp.Sender, error) {
		return nopSender{}, nil
	})
	invites := services.NewInviteService(inviteRepo)
	onboarding := services.NewOnboardingService(db, instituteRepo, inviteRepo, authSvc, nil)
	leads := services.NewLeadService(leadRepo, courseRepo, agg, export.NewService())
	convs := services.NewConversationService(convRepo, msgRepo, institutes)
	fees := services.NewFeeService(feeRepo, leadRepo, courseRepo, institutes, convs)
	dashboard := services.NewDashboardService(agg, fees, inviteRepo)

	s := &testServer{dispatcher: &recordingDispatcher{}}
	for _, slug := range []string{"alpha", "beta"} {
		inst := &models.Institute{Name: "Inst " + slug, Slug: slug, Plan: models.PlanPilot, Status: models.InstituteStatusActive}
		if err := instituteRepo.Create(inst); err != nil {
			t.Fatal(err)
		}
		if slug == "alpha" {
			s.instA = inst
		} else {
			s.instB = inst
		}
	}

	tokens := tokenTable{
		tokenA:     {UserID: uuid.NewString(), Role: auth.RoleInstituteAdmin, InstituteID: s.instA.ID.String()},
		tokenB:     {UserID: uuid.NewString(), Role: auth.RoleStaff, InstituteID: s.instB.ID.String()},
		tokenAdmin: {UserID: uuid.NewString(), Role: auth.RoleSuperAdmin},
	}

	h := &Handlers{
		Health:       NewHealthHandler(db),
		Webhook:      NewWebhookHandler(s.dispatcher, "verify-me", appSecret),
		Auth:         auth.NewHandler(authSvc, auditSvc),
		Onboarding:   NewOnboardingHandler(onboarding, invites, auditSvc),
		Institute:    NewInstituteHandler(institutes, auditSvc),
		Lead:         NewLeadHandler(leads, institutes, auditSvc),
		Course:       NewCourseHandler(services.NewCourseService(courseRepo), auditSvc),
		Fee:          NewFeeHandler(fees, auditSvc),
		Conversation: NewConversationHandler(convs, auditSvc),
		Dashboard:    NewDashboardHandler(dashboard),
		Admin:        NewAdminHandler(institutes, onboarding, invites, dashboard, auditSvc),
	}

	s.app = fiber.New()
	RegisterRoutes(s.app, h, tokens)
	return s
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	json.Unmarshal(raw, &out)
	return resp, out
}

func TestWebhookVerify(t *testing.T) {
	s := newServer(t, "")

	req := httptest.NewRequest("GET", "/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || string(raw) != "12345" {
		t.Errorf("verify = %d %q", resp.StatusCode, raw)
	}

	resp, _ = s.do(t, "GET", "/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=1", "", "")
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("wrong token status = %d", resp.StatusCode)
	}
}

const webhookBody = `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{
"messaging_product":"whatsapp","metadata":{"display_phone_number":"919000000000","phone_number_id":"pn-1"},
"contacts":[{"wa_id":"919812345678","profile":{"name":"Ravi"}}],
"messages":[{"from":"919812345678","id":"wamid.A","timestamp":"1760000000","type":"text","text":{"body":"Hi"}}]}}]}]}`

func TestWebhookReceive(t *testing.T) {
	s := newServer(t, "")

	resp, _ := s.do(t, "POST", "/webhooks/whatsapp", "", "{not json")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("malformed status = %d", resp.StatusCode)
	}

	resp, _ = s.do(t, "POST", "/webhooks/whatsapp", "", webhookBody)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(s.dispatcher.payloads) != 1 {
		t.Fatalf("dispatched = %d", len(s.dispatcher.payloads))
	}
	got := s.dispatcher.payloads[0].Entry[0].Changes[0].Value
	if got.Metadata.PhoneNumberID != "pn-1" || got.Messages[0].Content() != "Hi" || got.ContactName("919812345678") != "Ravi" {
		t.Errorf("payload = %+v", got)
	}

	// unusable but well-formed payloads are still acknowledged
	resp, _ = s.do(t, "POST", "/webhooks/whatsapp", "", `{"object":"page","entry":[]}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("empty payload status = %d", resp.StatusCode)
	}
}

func TestWebhookSignature(t *testing.T) {
	s := newServer(t, "app-secret")

	post := func(sig string) int {
		req := httptest.NewRequest("POST", "/webhooks/whatsapp", strings.NewReader(webhookBody))
		req.Header.Set("Content-Type", "application/json")
		if sig != "" {
			req.Header.Set("X-Hub-Signature-256", sig)
		}
		resp, err := s.app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		return resp.StatusCode
	}

	mac := hmac.New(sha256.New, []byte("app-secret"))
	mac.Write([]byte(webhookBody))
	good := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	if code := post(""); code != fiber.StatusUnauthorized {
		t.Errorf("unsigned status = %d", code)
	}
	if code := post("sha256=deadbeef"); code != fiber.StatusUnauthorized {
		t.Errorf("bad signature status = %d", code)
	}
	if code := post(good); code != fiber.StatusOK {
		t.Errorf("signed status = %d", code)
	}
}

func TestRouteGuards(t *testing.T) {
	s := newServer(t, "")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", "GET", "/api/v1/leads", "", fiber.StatusUnauthorized},
		{"super admin on tenant route", "GET", "/api/v1/leads", tokenAdmin, fiber.StatusForbidden},
		{"staff on admin route", "GET", "/api/v1/admin/stats", tokenB, fiber.StatusForbidden},
		{"staff on admin-only tenant route", "PUT", "/api/v1/institute/ai", tokenB, fiber.StatusForbidden},
		{"tenant dashboard", "GET", "/api/v1/dashboard", tokenA, fiber.StatusOK},
		{"admin stats", "GET", "/api/v1/admin/stats", tokenAdmin, fiber.StatusOK},
		{"health", "GET", "/health", "", fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := s.do(t, tt.method, tt.path, tt.token, "")
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestLeadEndpoints(t *testing.T) {
	s := newServer(t, "")

	resp, body := s.do(t, "POST", "/api/v1/leads", tokenA, `{"name":"Ravi"}`)
	if resp.StatusCode != fiber.StatusBadRequest || body["field"] != "phone" {
		t.Errorf("missing phone: %d %v", resp.StatusCode, body)
	}

	resp, body = s.do(t, "POST", "/api/v1/leads", tokenA, `{"name":"Ravi","phone":"+91 98123-45678"}`)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create: %d %v", resp.StatusCode, body)
	}
	id, _ := body["id"].(string)
	if body["phone"] != "919812345678" {
		t.Errorf("phone = %v", body["phone"])
	}

	resp, _ = s.do(t, "POST", "/api/v1/leads", tokenA, `{"name":"Ravi again","phone":"919812345678"}`)
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("duplicate status = %d", resp.StatusCode)
	}

	resp, _ = s.do(t, "GET", "/api/v1/leads/"+id, tokenB, "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("cross-tenant get status = %d", resp.StatusCode)
	}

	resp, _ = s.do(t, "PATCH", "/api/v1/leads/"+id+"/status", tokenA, `{"status":"lost"}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("lost without reason status = %d", resp.StatusCode)
	}
	resp, body = s.do(t, "PATCH", "/api/v1/leads/"+id+"/status", tokenA, `{"status":"lost","reason":"joined elsewhere"}`)
	if resp.StatusCode != fiber.StatusOK || body["status"] != "lost" {
		t.Errorf("lost: %d %v", resp.StatusCode, body)
	}

	resp, body = s.do(t, "GET", "/api/v1/leads?status=lost", tokenA, "")
	if resp.StatusCode != fiber.StatusOK || body["total"] != float64(1) {
		t.Errorf("list: %d %v", resp.StatusCode, body)
	}
	resp, _ = s.do(t, "GET", "/api/v1/leads?status=maybe", tokenA, "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("bad status filter = %d", resp.StatusCode)
	}

	req := httptest.NewRequest("GET", "/api/v1/leads/export?format=csv", nil)
	req.Header.Set("Authorization", "Bearer "+tokenA)
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if cd := resp.Header.Get("Content-Disposition"); resp.StatusCode != 200 || !strings.HasPrefix(cd, "attachment;") {
		t.Errorf("export: %d %q", resp.StatusCode, cd)
	}
	csv, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(csv), "919812345678") {
		t.Errorf("export body missing lead: %s", csv)
	}
}

func TestAdminInviteCodes(t *testing.T) {
	s := newServer(t, "")

	resp, body := s.do(t, "POST", "/api/v1/admin/invite-codes", tokenAdmin, `{"code":"pilot-2026","max_uses":2}`)
	if resp.StatusCode != fiber.StatusCreated || body["code"] != "PILOT-2026" {
		t.Fatalf("create: %d %v", resp.StatusCode, body)
	}
	id, _ := body["id"].(string)

	resp, body = s.do(t, "POST", "/api/v1/auth/invite-codes/validate", "", `{"code":"pilot-2026"}`)
	if resp.StatusCode != fiber.StatusOK || body["valid"] != true {
		t.Errorf("validate: %d %v", resp.StatusCode, body)
	}

	resp, _ = s.do(t, "POST", "/api/v1/admin/invite-codes/"+id+"/deactivate", tokenAdmin, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("deactivate status = %d", resp.StatusCode)
	}

	resp, _ = s.do(t, "POST", "/api/v1/auth/signup", "",
		`{"invite_code":"PILOT-2026","institute_name":"New Academy","admin_name":"Asha","email":"asha@new.in","password":"password123"}`)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("signup with inactive code status = %d", resp.StatusCode)
	}

	resp, _ = s.do(t, "DELETE", "/api/v1/admin/invite-codes/"+uuid.NewString(), tokenAdmin, "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("delete unknown status = %d", resp.StatusCode)
	}

	resp, body = s.do(t, "GET", "/api/v1/admin/audit-logs?entity_type=invite_code", tokenAdmin, "")
	if resp.StatusCode != fiber.StatusOK || body["total_count"] != float64(2) {
		t.Errorf("audit logs: %d %v", resp.StatusCode, body)
	}
}
