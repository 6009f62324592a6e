package models

import "github.com/adwelink/ams-api/internal/core/analytics"

// Dashboard is the institute home screen
type Dashboard struct {
	Leads struct {
		Total        int64 `json:"total"`
		Fresh        int64 `json:"fresh"`
		FollowUp     int64 `json:"follow_up"`
		Converted    int64 `json:"converted"`
		Lost         int64 `json:"lost"`
		NewThisWeek  int64 `json:"new_this_week"`
		FollowUpsDue int64 `json:"follow_ups_due_today"`
	} `json:"leads"`
	ConversionRate      float64 `json:"conversion_rate"`
	ActiveConversations int64   `json:"active_conversations_today"`
	Messages            struct {
		AI    int64 `json:"ai"`
		Human int64 `json:"human"`
	} `json:"messages"`
	Fees      FeeSummary           `json:"fees"`
	LeadTrend []analytics.Point    `json:"lead_trend"`
	Cards     []analytics.StatCard `json:"cards"`
}

// PlatformStats is the super-admin overview
type PlatformStats struct {
	Institutes struct {
		Total     int64 `json:"total"`
		Active    int64 `json:"active"`
		Suspended int64 `json:"suspended"`
	} `json:"institutes"`
	TotalLeads          int64             `json:"total_leads"`
	Messages30Days      int64             `json:"messages_last_30_days"`
	InviteCodesActive   int64             `json:"invite_codes_active"`
	InviteUsesRemaining int64             `json:"invite_uses_remaining"`
	SignupTrend         []analytics.Point `json:"signup_trend"`
}

// AllModels is every table this package owns, in dependency order
func AllModels() []interface{} {
	return []interface{}{
		&Institute{}, &InviteCode{}, &Course{}, &Lead{}, &LeadActivity{},
		&FeeRecord{}, &FeePayment{}, &Conversation{}, &Message{},
	}
}
