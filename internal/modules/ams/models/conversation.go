package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Conversation is the WhatsApp thread between an institute and one contact
type Conversation struct {
	ID            uuid.UUID  `gorm:"primaryKey" json:"id"`
	InstituteID   uuid.UUID  `gorm:"not null;uniqueIndex:idx_conversation_contact" json:"institute_id"`
	LeadID        *uuid.UUID `json:"lead_id,omitempty"`
	ContactPhone  string     `gorm:"not null;uniqueIndex:idx_conversation_contact" json:"contact_phone"`
	ContactName   string     `json:"contact_name"`
	AIPaused      bool       `gorm:"column:ai_paused" json:"ai_paused"`
	LastMessageAt *time.Time `gorm:"index" json:"last_message_at,omitempty"`
	LastMessage   string     `json:"last_message"`
	UnreadCount   int        `json:"unread_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"

	SenderCustomer = "customer"
	SenderAI       = "ai"
	SenderHuman    = "human"
	SenderSystem   = "system" // reminders sent by scheduled jobs

	MessageStatusReceived  = "received"
	MessageStatusPending   = "pending"
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
	MessageStatusFailed    = "failed"
)

// statusRank orders delivery statuses; a status update never lowers it
var statusRank = map[string]int{
	MessageStatusSent:      1,
	MessageStatusDelivered: 2,
	MessageStatusRead:      3,
}

// StatusAdvances reports whether moving from cur to next is allowed.
// failed always applies.
func StatusAdvances(cur, next string) bool {
	if next == MessageStatusFailed {
		return true
	}
	n, ok := statusRank[next]
	if !ok {
		return false
	}
	return n > statusRank[cur]
}

type Message struct {
	ID             uuid.UUID      `gorm:"primaryKey" json:"id"`
	ConversationID uuid.UUID      `gorm:"not null;index" json:"conversation_id"`
	InstituteID    uuid.UUID      `gorm:"not null;index" json:"institute_id"`
	Direction      string         `gorm:"not null" json:"direction"`
	Sender         string         `gorm:"not null" json:"sender"`
	SenderUserID   *uuid.UUID     `json:"sender_user_id,omitempty"`
	Recipient      string         `gorm:"index" json:"recipient,omitempty"`
	Body           string         `json:"body"`
	WAMessageID    *string        `gorm:"column:wa_message_id;uniqueIndex" json:"wa_message_id,omitempty"`
	Status         string         `gorm:"not null" json:"status"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	Raw            datatypes.JSON `json:"-"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type SendMessageRequest struct {
	Body string `json:"body"`
}

type ConversationFilter struct {
	InstituteID uuid.UUID
	Search      string
	Paused      *bool
	Page        int
	PageSize    int
}

type ConversationListResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int64          `json:"total"`
	Page          int            `json:"page"`
	PageSize      int            `json:"page_size"`
	TotalPages    int            `json:"total_pages"`
}
