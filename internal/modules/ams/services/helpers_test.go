package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/adwelink/ams-api/internal/core/analytics"
	"github.com/adwelink/ams-api/internal/core/auth"
	"github.com/adwelink/ams-api/internal/core/export"
	"github.com/adwelink/ams-api/internal/core/llm"
	"github.com/adwelink/ams-api/internal/core/whatsapp"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/repositories"
	"github.com/adwelink/ams-api/internal/shared/database/dbtest"
	"gorm.io/gorm"
)

type sentText struct {
	To   string
	Body string
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []sentText
	sendErr error
	// beforeReturn runs after a successful send, before the id is returned
	beforeReturn func(to, waID string)
}

func (f *fakeSender) SendText(ctx context.Context, to, body string) (string, error) {
	f.mu.Lock()
	if f.sendErr != nil {
		f.mu.Unlock()
		return "", f.sendErr
	}
	f.sent = append(f.sent, sentText{To: to, Body: body})
	waID := fmt.Sprintf("wamid.out-%d", len(f.sent))
	hook := f.beforeReturn
	f.mu.Unlock()

	if hook != nil {
		hook(to, waID)
	}
	return waID, nil
}

func (f *fakeSender) MarkAsRead(ctx context.Context, messageID string) error { return nil }

func (f *fakeSender) Sent() []sentText {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentText(nil), f.sent...)
}

type fakeResponder struct {
	reply  string
	err    error
	calls  int
	prompt string
	turns  []llm.Turn
	before func()
}

func (f *fakeResponder) GenerateResponse(ctx context.Context, systemPrompt string, turns []llm.Turn) (string, error) {
	f.calls++
	f.prompt = systemPrompt
	f.turns = turns
	if f.before != nil {
		f.before()
	}
	return f.reply, f.err
}

var errLLMDown = errors.New("llm down")

// env wires every service against one sqlite database
type env struct {
	db         *gorm.DB
	sender     *fakeSender
	ai         *fakeResponder
	authSvc    *auth.Service
	institutes *InstituteService
	onboarding *OnboardingService
	leads      *LeadService
	courses    *CourseService
	convs      *ConversationService
	fees       *FeeService
	webhook    *WebhookService
	dashboard  *DashboardService

	instituteRepo repositories.InstituteRepo
	inviteRepo    repositories.InviteCodeRepo
	leadRepo      repositories.LeadRepo
	feeRepo       repositories.FeeRepo
	convRepo      repositories.ConversationRepo
	msgRepo       repositories.MessageRepo
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.New(t, append(models.AllModels(), &auth.InstituteUser{})...)

	e := &env{
		db:            db,
		sender:        &fakeSender{},
		ai:            &fakeResponder{reply: "Hello! Which course are you interested in?"},
		instituteRepo: repositories.NewInstituteRepo(db),
		inviteRepo:    repositories.NewInviteCodeRepo(db),
		leadRepo:      repositories.NewLeadRepo(db),
		feeRepo:       repositories.NewFeeRepo(db),
		convRepo:      repositories.NewConversationRepo(db),
		msgRepo:       repositories.NewMessageRepo(db),
	}
	courseRepo := repositories.NewCourseRepo(db)
	agg := analytics.NewAggregator(db)

	e.authSvc = auth.NewService(db, auth.NewJWTService("test-secret", 0, 0), nil)
	e.institutes = NewInstituteService(e.instituteRepo, func(creds whatsapp.Credentials) (whatsapp.Sender, error) {
		return e.sender, nil
	})
	e.onboarding = NewOnboardingService(db, e.instituteRepo, e.inviteRepo, e.authSvc, nil)
	e.leads = NewLeadService(e.leadRepo, courseRepo, agg, export.NewService())
	e.courses = NewCourseService(courseRepo)
	e.convs = NewConversationService(e.convRepo, e.msgRepo, e.institutes)
	e.fees = NewFeeService(e.feeRepo, e.leadRepo, courseRepo, e.institutes, e.convs)
	e.dashboard = NewDashboardService(agg, e.fees, e.inviteRepo)

	webhook, err := NewWebhookService(e.institutes, e.leads, courseRepo, e.convRepo, e.msgRepo, e.convs, e.ai, 2)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(webhook.Close)
	e.webhook = webhook
	return e
}

// institute creates an active institute with WhatsApp and AI on
func (e *env) institute(t *testing.T, slug string) *models.Institute {
	t.Helper()
	inst := &models.Institute{
		Name:            "Bright " + slug,
		Slug:            slug,
		Plan:            models.PlanPilot,
		Status:          models.InstituteStatusActive,
		WAPhoneNumberID: "pn-" + slug,
		WAAccessToken:   "token",
		WADisplayNumber: "919000000000",
		AIEnabled:       true,
	}
	if err := e.instituteRepo.Create(inst); err != nil {
		t.Fatal(err)
	}
	return inst
}

func textMessage(id, from, body string) whatsapp.InboundMessage {
	return whatsapp.InboundMessage{
		ID:        id,
		From:      from,
		Type:      "text",
		Timestamp: "1760000000",
		Text:      &whatsapp.TextBody{Body: body},
	}
}
