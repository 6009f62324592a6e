package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAICompatibleProvider(t *testing.T) {
	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"The JEE batch starts in June."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	provider, err := NewProvider(&ProviderConfig{Type: ProviderGroq, APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if provider.GetProviderName() != "Groq" {
		t.Errorf("name = %q", provider.GetProviderName())
	}

	reply, err := provider.GenerateResponse(context.Background(), "sys", []Turn{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "when does JEE start?"},
	})
	if err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}
	if reply != "The JEE batch starts in June." {
		t.Errorf("reply = %q", reply)
	}

	if req.Model != "llama-3.1-8b-instant" {
		t.Errorf("model = %q", req.Model)
	}
	if len(req.Messages) != 4 || req.Messages[0].Role != "system" || req.Messages[2].Role != "assistant" {
		t.Errorf("messages = %+v", req.Messages)
	}
}

func TestNewProviderErrors(t *testing.T) {
	if _, err := NewProvider(&ProviderConfig{Type: "gemini", APIKey: "k"}); err == nil {
		t.Error("unknown provider accepted")
	}
	if _, err := NewProvider(&ProviderConfig{Type: ProviderOpenAI}); err == nil {
		t.Error("missing key accepted")
	}
}

type stubProvider struct {
	reply string
}

func (s stubProvider) GenerateResponse(context.Context, string, []Turn) (string, error) {
	return s.reply, nil
}
func (s stubProvider) GetProviderName() string { return "stub" }

func TestServiceRejectsEmptyReply(t *testing.T) {
	svc := NewServiceWithProvider(stubProvider{reply: "   \n"})
	if _, err := svc.GenerateResponse(context.Background(), "s", nil); err == nil {
		t.Error("empty reply accepted")
	}

	svc = NewServiceWithProvider(stubProvider{reply: " ok \n"})
	got, err := svc.GenerateResponse(context.Background(), "s", nil)
	if err != nil || got != "ok" {
		t.Errorf("got %q, %v", got, err)
	}
}
