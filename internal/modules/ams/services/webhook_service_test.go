package services

import (
	"context"
	"strings"
	"testing"

	"github.com/adwelink/ams-api/internal/core/whatsapp"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
)

func TestInboundCreatesLeadAndRepliesOnce(t *testing.T) {
	e := newEnv(t)
	inst := e.institute(t, "wh")
	e.courses.Create(inst.ID, &models.CourseRequest{Name: "NEET Crash Course", Fee: 25000, DurationWeeks: 12})
	ctx := context.Background()

	msg := textMessage("wamid.IN1", "919811111111", "Hi, what courses do you have?")
	if err := e.webhook.ProcessInbound(ctx, inst.WAPhoneNumberID, msg, "Ravi"); err != nil {
		t.Fatalf("ProcessInbound: %v", err)
	}
	// Meta retries the same delivery
	if err := e.webhook.ProcessInbound(ctx, inst.WAPhoneNumberID, msg, "Ravi"); err != nil {
		t.Fatalf("duplicate ProcessInbound: %v", err)
	}

	if e.ai.calls != 1 {
		t.Errorf("ai calls = %d, want 1", e.ai.calls)
	}
	if !strings.Contains(e.ai.prompt, "NEET Crash Course") {
		t.Errorf("prompt missing course: %s", e.ai.prompt)
	}
	sent := e.sender.Sent()
	if len(sent) != 1 || sent[0].To != "919811111111" || sent[0].Body != e.ai.reply {
		t.Fatalf("sent = %+v", sent)
	}

	lead, err := e.leadRepo.GetByPhone(inst.ID, "919811111111")
	if err != nil {
		t.Fatalf("lead not captured: %v", err)
	}
	if lead.Source != models.LeadSourceWhatsApp || lead.Status != models.LeadStatusFresh || lead.Name != "Ravi" {
		t.Errorf("lead = %+v", lead)
	}

	conv, _ := e.convRepo.GetOrCreate(inst.ID, "919811111111", "")
	if conv.LeadID == nil || *conv.LeadID != lead.ID {
		t.Errorf("conversation lead = %v", conv.LeadID)
	}
	msgs, _ := e.msgRepo.List(conv.ID, 10, nil)
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want inbound + ai reply", len(msgs))
	}
	if msgs[1].Sender != models.SenderAI || msgs[1].Status != models.MessageStatusSent || *msgs[1].WAMessageID != "wamid.out-1" {
		t.Errorf("reply row = %+v", msgs[1])
	}
}

func TestPausedConversationGetsNoAIReply(t *testing.T) {
	e := newEnv(t)
	inst := e.institute(t, "paused")
	ctx := context.Background()

	conv, _ := e.convRepo.GetOrCreate(inst.ID, "919822222222", "Meera")
	if _, err := e.convs.Reply(ctx, inst.ID, conv.ID, nil, "Hi Meera, this is Asha from the office."); err != nil {
		t.Fatalf("Reply: %v", err)
	}

	e.webhook.ProcessInbound(ctx, inst.WAPhoneNumberID, textMessage("wamid.P1", "919822222222", "ok thanks"), "Meera")
	if e.ai.calls != 0 {
		t.Errorf("ai called %d times on a paused conversation", e.ai.calls)
	}
	if len(e.sender.Sent()) != 1 {
		t.Errorf("sent = %+v, want only the human reply", e.sender.Sent())
	}

	if _, err := e.convs.Resume(inst.ID, conv.ID); err != nil {
		t.Fatal(err)
	}
	e.webhook.ProcessInbound(ctx, inst.WAPhoneNumberID, textMessage("wamid.P2", "919822222222", "fees?"), "Meera")
	if e.ai.calls != 1 {
		t.Errorf("ai calls after resume = %d", e.ai.calls)
	}
}

func TestPauseDuringGenerationDiscardsReply(t *testing.T) {
	e := newEnv(t)
	inst := e.institute(t, "race")
	conv, _ := e.convRepo.GetOrCreate(inst.ID, "919833333333", "")
	e.ai.before = func() { e.convRepo.SetPaused(inst.ID, conv.ID, true) }

	e.webhook.ProcessInbound(context.Background(), inst.WAPhoneNumberID, textMessage("wamid.R1", "919833333333", "hello"), "")
	if len(e.sender.Sent()) != 0 {
		t.Errorf("reply sent after pause: %+v", e.sender.Sent())
	}
}

func TestSuspendedInstituteStoresButDoesNotReply(t *testing.T) {
	e := newEnv(t)
	inst := e.institute(t, "susp")
	if _, err := e.institutes.Suspend(inst.ID); err != nil {
		t.Fatal(err)
	}

	e.webhook.ProcessInbound(context.Background(), inst.WAPhoneNumberID, textMessage("wamid.S1", "919844444444", "hello"), "")
	if e.ai.calls != 0 || len(e.sender.Sent()) != 0 {
		t.Errorf("suspended institute replied")
	}
	conv, _ := e.convRepo.GetOrCreate(inst.ID, "919844444444", "")
	msgs, _ := e.msgRepo.List(conv.ID, 10, nil)
	if len(msgs) != 1 {
		t.Errorf("messages = %d, want stored inbound", len(msgs))
	}
}

func TestLLMFailureSendsFallback(t *testing.T) {
	e := newEnv(t)
	inst := e.institute(t, "fb")
	e.ai.err = errLLMDown

	e.webhook.ProcessInbound(context.Background(), inst.WAPhoneNumberID, textMessage("wamid.F1", "919855555555", "hello"), "")
	sent := e.sender.Sent()
	if len(sent) != 1 || sent[0].Body != FallbackReply {
		t.Errorf("sent = %+v", sent)
	}
}

func TestUnknownPhoneNumberIDIsDropped(t *testing.T) {
	e := newEnv(t)
	if err := e.webhook.ProcessInbound(context.Background(), "nobody", textMessage("wamid.X", "91", "hi"), ""); err != nil {
		t.Errorf("err = %v", err)
	}
}

func TestDispatchAndStatusUpdates(t *testing.T) {
	e := newEnv(t)
	inst := e.institute(t, "disp")

	payload := &whatsapp.WebhookPayload{
		Object: "whatsapp_business_account",
		Entry: []whatsapp.Entry{{Changes: []whatsapp.Change{{
			Field: "messages",
			Value: whatsapp.Value{
				Metadata: whatsapp.Metadata{PhoneNumberID: inst.WAPhoneNumberID},
				Contacts: []whatsapp.Contact{{WaID: "919866666666"}},
				Messages: []whatsapp.InboundMessage{textMessage("wamid.D1", "919866666666", "hello")},
			},
		}}}},
	}
	if n := e.webhook.Dispatch(payload); n != 1 {
		t.Fatalf("queued = %d", n)
	}
	e.webhook.Wait()

	if len(e.sender.Sent()) != 1 {
		t.Fatalf("sent = %+v", e.sender.Sent())
	}

	// delivered for the id the send returned, then a stale "sent"
	for _, st := range []string{models.MessageStatusDelivered, models.MessageStatusSent} {
		err := e.webhook.ProcessStatus(inst.WAPhoneNumberID, whatsapp.StatusUpdate{ID: "wamid.out-1", Status: st, RecipientID: "919866666666"})
		if err != nil {
			t.Fatal(err)
		}
	}
	conv, _ := e.convRepo.GetOrCreate(inst.ID, "919866666666", "")
	msgs, _ := e.msgRepo.List(conv.ID, 10, nil)
	if got := msgs[len(msgs)-1].Status; got != models.MessageStatusDelivered {
		t.Errorf("status = %s, want delivered", got)
	}
}

func TestReceiptBeforeSendReturnsIsKept(t *testing.T) {
	e := newEnv(t)
	inst := e.institute(t, "early")
	conv, _ := e.convRepo.GetOrCreate(inst.ID, "919855555555", "Asha")

	e.sender.beforeReturn = func(to, waID string) {
		err := e.webhook.ProcessStatus(inst.WAPhoneNumberID, whatsapp.StatusUpdate{ID: waID, Status: models.MessageStatusDelivered, RecipientID: to})
		if err != nil {
			t.Errorf("ProcessStatus: %v", err)
		}
	}

	msg, err := e.convs.Reply(context.Background(), inst.ID, conv.ID, nil, "Fees are due Friday")
	if err != nil {
		t.Fatal(err)
	}

	var stored models.Message
	if err := e.db.First(&stored, "id = ?", msg.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.MessageStatusDelivered {
		t.Errorf("status = %s, want delivered", stored.Status)
	}
	if stored.WAMessageID == nil || *stored.WAMessageID != "wamid.out-1" {
		t.Errorf("wa_message_id = %v", stored.WAMessageID)
	}
}

func TestCaptureFromWhatsAppReturnsExistingLead(t *testing.T) {
	e := newEnv(t)
	inst := e.institute(t, "capture")

	first, created, err := e.leads.CaptureFromWhatsApp(inst.ID, "919844444444", "Kiran")
	if err != nil || !created {
		t.Fatalf("first capture = %v, %v", created, err)
	}
	again, created, err := e.leads.CaptureFromWhatsApp(inst.ID, "+91 98444-44444", "")
	if err != nil || created {
		t.Fatalf("second capture = %v, %v", created, err)
	}
	if again.ID != first.ID {
		t.Errorf("second capture made lead %s, want %s", again.ID, first.ID)
	}

	var count int64
	e.db.Model(&models.Lead{}).Where("institute_id = ?", inst.ID).Count(&count)
	if count != 1 {
		t.Errorf("leads = %d, want 1", count)
	}
}
