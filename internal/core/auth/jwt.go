package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer  = "ams-api"
	typeAccess   = "access"
	typeRefresh  = "refresh"
	defaultTTL   = 15 * time.Minute
	defaultRTTL  = 7 * 24 * time.Hour
	signingAlgHS = "HS256"
)

var errWrongTokenType = errors.New("wrong token type")

// accessClaims is the signed form of TokenClaims
type accessClaims struct {
	Email       string `json:"email"`
	Role        string `json:"role"`
	InstituteID string `json:"institute_id,omitempty"`
	Type        string `json:"typ"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies the console's HS256 tokens. The user id
// travels as the subject claim.
type JWTService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     *jwt.Parser
}

// NewJWTService creates a new JWT service. Zero durations fall back to
// 15 minutes (access) and 7 days (refresh).
func NewJWTService(secretKey string, accessTTL, refreshTTL time.Duration) *JWTService {
	if accessTTL <= 0 {
		accessTTL = defaultTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRTTL
	}
	return &JWTService{
		secret:     []byte(secretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{signingAlgHS}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithExpirationRequired(),
		),
	}
}

func (s *JWTService) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *JWTService) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// GenerateAccessToken returns the signed token and its lifetime in seconds
func (s *JWTService) GenerateAccessToken(claims *TokenClaims) (string, int64, error) {
	signed, err := s.sign(&accessClaims{
		Email:            claims.Email,
		Role:             claims.Role,
		InstituteID:      claims.InstituteID,
		Type:             typeAccess,
		RegisteredClaims: s.registered(claims.UserID, s.accessTTL),
	})
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.accessTTL.Seconds()), nil
}

// GenerateRefreshToken returns the signed token and when it expires
func (s *JWTService) GenerateRefreshToken(userID string) (string, time.Time, error) {
	registered := s.registered(userID, s.refreshTTL)
	signed, err := s.sign(&refreshClaims{Type: typeRefresh, RegisteredClaims: registered})
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, registered.ExpiresAt.Time, nil
}

func (s *JWTService) parse(tokenString string, claims jwt.Claims) error {
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}
	return nil
}

func (s *JWTService) ValidateAccessToken(tokenString string) (*TokenClaims, error) {
	var claims accessClaims
	if err := s.parse(tokenString, &claims); err != nil {
		return nil, err
	}
	if claims.Type != typeAccess {
		return nil, errWrongTokenType
	}
	return &TokenClaims{
		UserID:      claims.Subject,
		Email:       claims.Email,
		Role:        claims.Role,
		InstituteID: claims.InstituteID,
	}, nil
}

// ValidateRefreshToken returns the user id a refresh token was issued to
func (s *JWTService) ValidateRefreshToken(tokenString string) (string, error) {
	var claims refreshClaims
	if err := s.parse(tokenString, &claims); err != nil {
		return "", err
	}
	if claims.Type != typeRefresh {
		return "", errWrongTokenType
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("refresh token has no subject")
	}
	return claims.Subject, nil
}
