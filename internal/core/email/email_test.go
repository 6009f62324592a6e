package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRenderNoticeEscapesHTML(t *testing.T) {
	body, err := RenderNotice(Notice{
		Title:   "New lead",
		Message: "<script>alert(1)</script>",
		Details: []Detail{{Label: "Phone", Value: "919876543210"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(body, "<script>") {
		t.Error("message was not escaped")
	}
	if !strings.Contains(body, "919876543210") {
		t.Error("detail missing from body")
	}
}

func TestBrevoProvider(t *testing.T) {
	var got brevoEmailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "key" {
			t.Errorf("api-key = %q", r.Header.Get("api-key"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := NewBrevoProvider("key", "noreply@adwelink.in", "Adwelink")
	p.endpoint = srv.URL

	if err := p.SendEmail(context.Background(), "admin@school.in", "Hi", "<p>x</p>"); err != nil {
		t.Fatalf("SendEmail: %v", err)
	}
	if got.To[0].Email != "admin@school.in" || got.Sender.Name != "Adwelink" || len(got.Tags) != 1 {
		t.Errorf("request = %+v", got)
	}
}

func TestResendProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer srv.Close()

	p := NewResendProvider("key", "noreply@adwelink.in", "")
	p.endpoint = srv.URL

	err := p.SendEmail(context.Background(), "a@b.in", "s", "b")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("err = %v, want 422 APIError", err)
	}
	if apiErr.Retryable() || !strings.Contains(apiErr.Body, "invalid from") {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestNewProviderFromSettings(t *testing.T) {
	p, err := NewProviderFromSettings(Settings{Provider: "smtp", SMTPHost: "smtp.local", SMTPPort: 25, FromEmail: "x@y.in"})
	if err != nil || p == nil || p.GetProviderName() != "smtp" {
		t.Errorf("smtp provider = %v, %v", p, err)
	}

	p, err = NewProviderFromSettings(Settings{Provider: "brevo", FromEmail: "x@y.in"})
	if err != nil || p != nil {
		t.Errorf("brevo without key = %v, %v; want disabled", p, err)
	}

	if _, err := NewProviderFromSettings(Settings{Provider: "carrier-pigeon", FromEmail: "x@y.in"}); err == nil {
		t.Error("unknown provider accepted")
	}

	if NewService(nil).Enabled() {
		t.Error("service without provider reports enabled")
	}
}
