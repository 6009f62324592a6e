package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultGraphURL is Meta's Graph API host
const DefaultGraphURL = "https://graph.facebook.com"

// Sender sends outbound WhatsApp messages for one business phone number
type Sender interface {
	SendText(ctx context.Context, to, body string) (string, error)
	MarkAsRead(ctx context.Context, messageID string) error
}

// Credentials are an institute's Cloud API credentials
type Credentials struct {
	PhoneNumberID string
	AccessToken   string
}

// ClientFactory builds a Sender for a set of credentials
type ClientFactory func(creds Credentials) (Sender, error)

// CloudAPIClient talks to the WhatsApp Cloud API
// Documentation: https://developers.facebook.com/docs/whatsapp/cloud-api
type CloudAPIClient struct {
	baseURL     string
	phoneID     string
	accessToken string
	client      *http.Client
}

// CloudAPIConfig holds configuration for WhatsApp Cloud API
type CloudAPIConfig struct {
	GraphURL    string // defaults to DefaultGraphURL
	APIVersion  string // defaults to v18.0
	PhoneID     string
	AccessToken string
	HTTPClient  *http.Client
}

// APIError is the error object Meta returns on failed calls
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	FBTraceID  string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp cloud api error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

// NewCloudAPIClient creates a new WhatsApp Cloud API client
func NewCloudAPIClient(config CloudAPIConfig) (*CloudAPIClient, error) {
	if config.PhoneID == "" {
		return nil, fmt.Errorf("phone_id is required")
	}
	if config.AccessToken == "" {
		return nil, fmt.Errorf("access_token is required")
	}
	if config.APIVersion == "" {
		config.APIVersion = "v18.0"
	}
	if config.GraphURL == "" {
		config.GraphURL = DefaultGraphURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &CloudAPIClient{
		baseURL:     fmt.Sprintf("%s/%s/%s", config.GraphURL, config.APIVersion, config.PhoneID),
		phoneID:     config.PhoneID,
		accessToken: config.AccessToken,
		client:      config.HTTPClient,
	}, nil
}

// NewClientFactory returns a factory that shares one HTTP client across
// institutes.
func NewClientFactory(graphURL, apiVersion string) ClientFactory {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return func(creds Credentials) (Sender, error) {
		return NewCloudAPIClient(CloudAPIConfig{
			GraphURL:    graphURL,
			APIVersion:  apiVersion,
			PhoneID:     creds.PhoneNumberID,
			AccessToken: creds.AccessToken,
			HTTPClient:  httpClient,
		})
	}
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendText sends a text message and returns the WhatsApp message id
func (p *CloudAPIClient) SendText(ctx context.Context, to, body string) (string, error) {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "text",
		"text": map[string]interface{}{
			"preview_url": false,
			"body":        body,
		},
	}

	var resp sendResponse
	if err := p.sendRequest(ctx, http.MethodPost, "/messages", payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Messages) == 0 {
		return "", fmt.Errorf("cloud api returned no message id")
	}

	log.Debug().Str("to", to).Str("wa_message_id", resp.Messages[0].ID).Msg("📤 WhatsApp message sent")
	return resp.Messages[0].ID, nil
}

// MarkAsRead marks an inbound message as read (blue ticks)
func (p *CloudAPIClient) MarkAsRead(ctx context.Context, messageID string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	}
	return p.sendRequest(ctx, http.MethodPost, "/messages", payload, nil)
}

func (p *CloudAPIClient) sendRequest(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var wrapped struct {
			Error *APIError `json:"error"`
		}
		if json.Unmarshal(respBody, &wrapped) == nil && wrapped.Error != nil {
			wrapped.Error.StatusCode = resp.StatusCode
			return wrapped.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
