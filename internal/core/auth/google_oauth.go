package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
)

var ErrGoogleEmailUnverified = errors.New("email not verified by Google")

// GoogleUserInfo is the subset of ID token claims used to sign a user in
type GoogleUserInfo struct {
	GoogleID  string
	Email     string
	Name      string
	AvatarURL string
}

// GoogleOAuthService verifies Google Identity Services credentials issued
// for the console's client id.
type GoogleOAuthService struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewGoogleOAuthService returns nil when no client id is configured so
// callers can leave Google sign-in disabled.
func NewGoogleOAuthService(clientID string) *GoogleOAuthService {
	if clientID == "" {
		return nil
	}
	return &GoogleOAuthService{clientID: clientID, validate: idtoken.Validate}
}

func (s *GoogleOAuthService) VerifyIDToken(ctx context.Context, token string) (*GoogleUserInfo, error) {
	if s == nil {
		return nil, fmt.Errorf("google sign-in is not configured")
	}
	payload, err := s.validate(ctx, token, s.clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify Google ID token: %w", err)
	}
	return userInfoFromClaims(payload.Subject, payload.Claims)
}

func userInfoFromClaims(subject string, claims map[string]interface{}) (*GoogleUserInfo, error) {
	if subject == "" {
		subject, _ = claims["sub"].(string)
	}
	if subject == "" {
		return nil, fmt.Errorf("missing sub claim in token")
	}

	if verified, _ := claims["email_verified"].(bool); !verified {
		return nil, ErrGoogleEmailUnverified
	}

	email, _ := claims["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("missing email claim in token")
	}

	info := &GoogleUserInfo{GoogleID: subject, Email: email}
	info.Name, _ = claims["name"].(string)
	info.AvatarURL, _ = claims["picture"].(string)
	return info, nil
}
