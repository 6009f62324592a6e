package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendText(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v19.0/12345/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.ABC"}]}`))
	}))
	defer srv.Close()

	client, err := NewCloudAPIClient(CloudAPIConfig{GraphURL: srv.URL, APIVersion: "v19.0", PhoneID: "12345", AccessToken: "tok"})
	if err != nil {
		t.Fatal(err)
	}

	id, err := client.SendText(context.Background(), "919876543210", "Hello")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if id != "wamid.ABC" {
		t.Errorf("id = %q", id)
	}
	if got["to"] != "919876543210" || got["type"] != "text" {
		t.Errorf("payload = %v", got)
	}
	text, _ := got["text"].(map[string]interface{})
	if text["body"] != "Hello" {
		t.Errorf("text.body = %v", text["body"])
	}
}

func TestSendTextAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`))
	}))
	defer srv.Close()

	client, _ := NewCloudAPIClient(CloudAPIConfig{GraphURL: srv.URL, PhoneID: "1", AccessToken: "bad"})
	_, err := client.SendText(context.Background(), "91", "x")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Code != 190 || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestNewCloudAPIClientValidation(t *testing.T) {
	if _, err := NewCloudAPIClient(CloudAPIConfig{AccessToken: "x"}); err == nil {
		t.Error("missing phone id accepted")
	}
	if _, err := NewCloudAPIClient(CloudAPIConfig{PhoneID: "x"}); err == nil {
		t.Error("missing access token accepted")
	}
}
