package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIError is returned when a transactional email API rejects a message.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Body)
}

// Retryable reports whether the provider failed on its side or throttled us.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// jsonAPI posts JSON payloads to an HTTP email API.
type jsonAPI struct {
	name       string
	endpoint   string
	header     http.Header
	httpClient *http.Client
}

func newJSONAPI(name, endpoint string, header http.Header) jsonAPI {
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")
	return jsonAPI{
		name:       name,
		endpoint:   endpoint,
		header:     header,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *jsonAPI) post(ctx context.Context, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", a.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", a.name, err)
	}
	req.Header = a.header.Clone()

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", a.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Provider: a.name, Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// GetProviderName returns the provider name
func (a *jsonAPI) GetProviderName() string {
	return a.name
}
