package services

import "errors"

var (
	ErrInviteInvalid   = errors.New("invite code not found")
	ErrInviteInactive  = errors.New("invite code is no longer active")
	ErrInviteExpired   = errors.New("invite code has expired")
	ErrInviteExhausted = errors.New("invite code has no uses left")

	ErrInstituteNotFound    = errors.New("institute not found")
	ErrLeadNotFound         = errors.New("lead not found")
	ErrLeadExists           = errors.New("a lead with this phone number already exists")
	ErrCourseNotFound       = errors.New("course not found")
	ErrFeeNotFound          = errors.New("fee record not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInviteCodeNotFound   = errors.New("invite code not found")

	ErrWhatsAppNotConfigured = errors.New("whatsapp is not configured for this institute")
	ErrLostReasonRequired    = errors.New("a reason is required when marking a lead lost")
	ErrSendFailed            = errors.New("failed to send whatsapp message")
)

// ValidationError is a bad request the caller can fix
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// inviteError maps a validation reason to its sentinel
func inviteError(reason string) error {
	switch reason {
	case "not_found":
		return ErrInviteInvalid
	case "inactive":
		return ErrInviteInactive
	case "expired":
		return ErrInviteExpired
	case "exhausted":
		return ErrInviteExhausted
	}
	return nil
}
