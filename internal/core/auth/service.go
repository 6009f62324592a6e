package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("account is disabled")
	ErrInstituteSuspended = errors.New("institute is suspended")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidRefresh     = errors.New("refresh token not found or expired")
	ErrUnknownGoogleUser  = errors.New("no account linked to this Google email")
)

// GoogleVerifier verifies a Google ID token. GoogleOAuthService satisfies it.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error)
}

type Service struct {
	repo       *Repository
	jwtService *JWTService
	google     GoogleVerifier
}

// NewService creates a new auth service
func NewService(db *gorm.DB, jwtService *JWTService, google GoogleVerifier) *Service {
	return &Service{
		repo:       NewRepository(db),
		jwtService: jwtService,
		google:     google,
	}
}

// Repository exposes the user store to modules that provision users.
func (s *Service) Repository() *Repository {
	return s.repo
}

// Login authenticates user with email and password
func (s *Service) Login(req *LoginRequest) (*AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.PasswordHash == "" || VerifyPassword(user.PasswordHash, req.Password) != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.checkActive(user); err != nil {
		return nil, err
	}

	if NeedsRehash(user.PasswordHash) {
		if hash, err := HashPassword(req.Password); err == nil {
			if err := s.repo.UpdatePasswordHash(user.ID, hash); err != nil {
				log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("⚠️ password rehash failed")
			}
		}
	}

	_ = s.repo.UpdateLastLogin(user.ID.String())

	log.Info().Str("user_id", user.ID.String()).Str("email", user.Email).Msg("✅ User logged in")

	return s.IssueTokens(user)
}

// LoginWithGoogle signs in an existing user with a Google ID token. The
// Google account is linked on first use by matching the verified email.
func (s *Service) LoginWithGoogle(ctx context.Context, idToken string) (*AuthResponse, error) {
	if s.google == nil {
		return nil, fmt.Errorf("google sign-in is not configured")
	}

	info, err := s.google.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByGoogleID(info.GoogleID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user == nil {
		user, err = s.repo.GetUserByEmail(info.Email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUnknownGoogleUser
			}
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if err := s.repo.LinkGoogleAccount(user.ID, info.GoogleID, info.AvatarURL); err != nil {
			return nil, fmt.Errorf("failed to link google account: %w", err)
		}
	}

	if err := s.checkActive(user); err != nil {
		return nil, err
	}

	_ = s.repo.UpdateLastLogin(user.ID.String())

	log.Info().Str("user_id", user.ID.String()).Str("email", user.Email).Msg("✅ User logged in via Google")

	return s.IssueTokens(user)
}

// RefreshToken rotates the token pair
func (s *Service) RefreshToken(refreshToken string) (*AuthResponse, error) {
	userID, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	user, err := s.repo.GetUserByRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	if user.ID.String() != userID {
		return nil, fmt.Errorf("refresh token user mismatch")
	}

	if err := s.checkActive(user); err != nil {
		return nil, err
	}

	return s.IssueTokens(user)
}

// Logout revokes user's refresh token
func (s *Service) Logout(userID string) error {
	if err := s.repo.RevokeRefreshToken(userID); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	log.Info().Str("user_id", userID).Msg("👋 User logged out")
	return nil
}

// ValidateToken validates an access token and returns its claims
func (s *Service) ValidateToken(accessToken string) (*TokenClaims, error) {
	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}
	return claims, nil
}

// Me returns the profile behind an access token
func (s *Service) Me(userID string) (*UserInfo, *InstituteInfo, error) {
	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		return nil, nil, err
	}

	var institute *InstituteInfo
	if user.InstituteID != nil {
		institute, err = s.repo.GetInstitute(*user.InstituteID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
	}

	return toUserInfo(user), institute, nil
}

// CreateUser adds a console user to an institute
func (s *Service) CreateUser(instituteID uuid.UUID, email, name, phone, password, role string) (*InstituteUser, error) {
	if role != RoleInstituteAdmin && role != RoleStaff {
		return nil, fmt.Errorf("role must be %q or %q", RoleInstituteAdmin, RoleStaff)
	}

	exists, err := s.repo.EmailExists(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &InstituteUser{
		InstituteID:   &instituteID,
		Email:         email,
		Name:          strings.TrimSpace(name),
		PhoneNumber:   phone,
		Role:          role,
		PasswordHash:  hash,
		OAuthProvider: "email",
		IsActive:      true,
	}
	if err := s.repo.CreateUser(nil, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", user.ID.String()).Str("institute_id", instituteID.String()).Str("role", role).Msg("✅ User created")
	return user, nil
}

// CreateSuperAdmin adds a platform operator. Operators belong to no
// institute and are only created from the command line.
func (s *Service) CreateSuperAdmin(email, name, password string) (*InstituteUser, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	user := &InstituteUser{
		Email:         email,
		Name:          strings.TrimSpace(name),
		Role:          RoleSuperAdmin,
		PasswordHash:  hash,
		OAuthProvider: "email",
		IsActive:      true,
	}
	if err := s.repo.CreateUser(nil, user); err != nil {
		return nil, fmt.Errorf("failed to create super admin: %w", err)
	}

	log.Info().Str("user_id", user.ID.String()).Msg("✅ Super admin created")
	return user, nil
}

// IssueTokens generates and persists a token pair for user
func (s *Service) IssueTokens(user *InstituteUser) (*AuthResponse, error) {
	instituteID := ""
	var institute *InstituteInfo
	if user.InstituteID != nil {
		instituteID = user.InstituteID.String()
		info, err := s.repo.GetInstitute(*user.InstituteID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to get institute info: %w", err)
		}
		institute = info
	}

	claims := &TokenClaims{
		UserID:      user.ID.String(),
		Email:       user.Email,
		Role:        user.Role,
		InstituteID: instituteID,
	}

	accessToken, expiresIn, err := s.jwtService.GenerateAccessToken(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, expiresAt, err := s.jwtService.GenerateRefreshToken(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.repo.UpdateRefreshToken(user.ID.String(), refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		User:         toUserInfo(user),
		Institute:    institute,
	}, nil
}

func (s *Service) checkActive(user *InstituteUser) error {
	if !user.IsActive {
		return ErrUserInactive
	}
	if user.InstituteID == nil {
		return nil
	}
	institute, err := s.repo.GetInstitute(*user.InstituteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInstituteSuspended
		}
		return fmt.Errorf("failed to load institute: %w", err)
	}
	if institute.Status == "suspended" {
		return ErrInstituteSuspended
	}
	return nil
}

func toUserInfo(user *InstituteUser) *UserInfo {
	return &UserInfo{
		ID:            user.ID.String(),
		Email:         user.Email,
		Name:          user.Name,
		Role:          user.Role,
		PhoneNumber:   user.PhoneNumber,
		AvatarURL:     user.AvatarURL,
		OAuthProvider: user.OAuthProvider,
	}
}
