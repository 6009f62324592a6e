package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// WebhookPayload is the body Meta posts to the webhook
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string           `json:"messaging_product"`
	Metadata         Metadata         `json:"metadata"`
	Contacts         []Contact        `json:"contacts,omitempty"`
	Messages         []InboundMessage `json:"messages,omitempty"`
	Statuses         []StatusUpdate   `json:"statuses,omitempty"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type InboundMessage struct {
	From        string        `json:"from"`
	ID          string        `json:"id"`
	Timestamp   string        `json:"timestamp"`
	Type        string        `json:"type"`
	Text        *TextBody     `json:"text,omitempty"`
	Image       *MediaMessage `json:"image,omitempty"`
	Document    *MediaMessage `json:"document,omitempty"`
	Audio       *MediaMessage `json:"audio,omitempty"`
	Video       *MediaMessage `json:"video,omitempty"`
	Interactive *Interactive  `json:"interactive,omitempty"`
	Button      *struct {
		Text    string `json:"text"`
		Payload string `json:"payload"`
	} `json:"button,omitempty"`
}

type TextBody struct {
	Body string `json:"body"`
}

type MediaMessage struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type Interactive struct {
	Type        string `json:"type"`
	ButtonReply *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"button_reply,omitempty"`
	ListReply *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"list_reply,omitempty"`
}

type StatusUpdate struct {
	ID          string `json:"id"`
	Status      string `json:"status"` // sent, delivered, read, failed
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
	Errors      []struct {
		Code    int    `json:"code"`
		Title   string `json:"title"`
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// Content returns the human-readable text of a message. Media without a
// caption becomes a bracketed placeholder such as "[image]".
func (m InboundMessage) Content() string {
	switch m.Type {
	case "text":
		if m.Text != nil {
			return m.Text.Body
		}
	case "interactive":
		if m.Interactive != nil {
			if m.Interactive.ButtonReply != nil {
				return m.Interactive.ButtonReply.Title
			}
			if m.Interactive.ListReply != nil {
				return m.Interactive.ListReply.Title
			}
		}
	case "button":
		if m.Button != nil {
			return m.Button.Text
		}
	case "image", "document", "video", "audio":
		for _, media := range []*MediaMessage{m.Image, m.Document, m.Video, m.Audio} {
			if media != nil && media.Caption != "" {
				return media.Caption
			}
		}
	}
	return "[" + m.Type + "]"
}

// IsText reports whether the message carries text an agent can answer.
func (m InboundMessage) IsText() bool {
	switch m.Type {
	case "text", "interactive", "button":
		return true
	}
	return false
}

// SentAt parses the unix-seconds timestamp Meta sends as a string.
func (m InboundMessage) SentAt() time.Time {
	return unixString(m.Timestamp)
}

// ErrorText joins the error titles of a failed status.
func (s StatusUpdate) ErrorText() string {
	parts := make([]string, 0, len(s.Errors))
	for _, e := range s.Errors {
		if e.Message != "" {
			parts = append(parts, e.Message)
		} else {
			parts = append(parts, e.Title)
		}
	}
	return strings.Join(parts, "; ")
}

// ContactName finds the profile name Meta sent for a wa_id.
func (v Value) ContactName(waID string) string {
	for _, c := range v.Contacts {
		if c.WaID == waID {
			return c.Profile.Name
		}
	}
	return ""
}

// VerifySubscription implements the GET handshake Meta performs when the
// webhook URL is registered. It returns the challenge to echo and whether
// the request is valid.
func VerifySubscription(mode, token, challenge, verifyToken string) (string, bool) {
	if mode != "subscribe" || verifyToken == "" || token != verifyToken {
		return "", false
	}
	return challenge, true
}

// ValidSignature checks the X-Hub-Signature-256 header against the raw
// body using the app secret.
func ValidSignature(appSecret string, body []byte, header string) bool {
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

func unixString(ts string) time.Time {
	secs := cast.ToInt64(ts)
	if secs <= 0 {
		return time.Now()
	}
	return time.Unix(secs, 0)
}
