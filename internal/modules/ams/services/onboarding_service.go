package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/adwelink/ams-api/internal/core/auth"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/repositories"
	"github.com/adwelink/ams-api/internal/shared/utils"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SignupNotifier is told about new self-service institutes
type SignupNotifier interface {
	NotifyNewSignup(ctx context.Context, instituteName, adminEmail, inviteCode string) error
}

// OnboardingService creates institutes together with their first admin,
// either through invite-code signup or super-admin provisioning.
type OnboardingService struct {
	db         *gorm.DB
	institutes repositories.InstituteRepo
	invites    repositories.InviteCodeRepo
	inviteSvc  *InviteService
	authSvc    *auth.Service
	notifier   SignupNotifier
	now        func() time.Time
}

func NewOnboardingService(
	db *gorm.DB,
	institutes repositories.InstituteRepo,
	invites repositories.InviteCodeRepo,
	authSvc *auth.Service,
	notifier SignupNotifier,
) *OnboardingService {
	return &OnboardingService{
		db:         db,
		institutes: institutes,
		invites:    invites,
		inviteSvc:  NewInviteService(invites),
		authSvc:    authSvc,
		notifier:   notifier,
		now:        time.Now,
	}
}

type newInstitute struct {
	name, city, plan           string
	adminName, email, password string
	phone                      string
}

func (n *newInstitute) validate() error {
	n.name = strings.TrimSpace(n.name)
	n.adminName = strings.TrimSpace(n.adminName)
	n.email = strings.ToLower(strings.TrimSpace(n.email))
	switch {
	case n.name == "":
		return invalid("institute_name", "is required")
	case n.adminName == "":
		return invalid("admin_name", "is required")
	case n.email == "" || !strings.Contains(n.email, "@"):
		return invalid("email", "a valid email is required")
	case len(n.password) < auth.MinPasswordLength:
		return invalid("password", fmt.Sprintf("must be at least %d characters", auth.MinPasswordLength))
	}
	return nil
}

// Signup validates the invite code, then creates the institute and its
// institute_admin and consumes one use of the code in a single
// transaction.
func (s *OnboardingService) Signup(ctx context.Context, req *models.SignupRequest) (*auth.AuthResponse, error) {
	if strings.TrimSpace(req.InviteCode) == "" {
		return nil, invalid("invite_code", "is required")
	}
	in := &newInstitute{
		name: req.InstituteName, city: req.City, plan: models.PlanPilot,
		adminName: req.AdminName, email: req.Email, password: req.Password, phone: req.Phone,
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	check, err := s.inviteSvc.Validate(req.InviteCode)
	if err != nil {
		return nil, err
	}
	if !check.Valid {
		return nil, inviteError(check.Reason)
	}

	user, institute, err := s.create(in, func(tx *gorm.DB) error {
		if err := s.invites.WithTx(tx).Consume(req.InviteCode, s.now()); err != nil {
			if errors.Is(err, repositories.ErrInviteUnavailable) {
				// lost a race for the last use, or expired in between
				return ErrInviteExhausted
			}
			return fmt.Errorf("failed to consume invite code: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("institute_id", institute.ID.String()).
		Str("slug", institute.Slug).
		Str("invite_code", repositories.NormalizeCode(req.InviteCode)).
		Msg("🎉 Institute signed up")

	if s.notifier != nil {
		go func(name, email, code string) {
			nctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.notifier.NotifyNewSignup(nctx, name, email, code); err != nil {
				log.Warn().Err(err).Msg("⚠️ Failed to send signup notification")
			}
		}(institute.Name, user.Email, repositories.NormalizeCode(req.InviteCode))
	}

	return s.authSvc.IssueTokens(user)
}

// Provision creates an institute and admin without an invite code
func (s *OnboardingService) Provision(req *models.ProvisionInstituteRequest) (*models.Institute, error) {
	plan := strings.TrimSpace(req.Plan)
	if plan == "" {
		plan = models.PlanPilot
	}
	in := &newInstitute{
		name: req.Name, city: req.City, plan: plan,
		adminName: req.AdminName, email: req.AdminEmail, password: req.AdminPassword, phone: req.AdminPhone,
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	_, institute, err := s.create(in, nil)
	if err != nil {
		return nil, err
	}
	log.Info().Str("institute_id", institute.ID.String()).Msg("🏫 Institute provisioned")
	return institute, nil
}

func (s *OnboardingService) create(in *newInstitute, inTx func(tx *gorm.DB) error) (*auth.InstituteUser, *models.Institute, error) {
	exists, err := s.authSvc.Repository().EmailExists(in.email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, nil, auth.ErrEmailTaken
	}

	hash, err := auth.HashPassword(in.password)
	if err != nil {
		return nil, nil, err
	}

	institute := &models.Institute{
		Name:     in.name,
		Email:    in.email,
		Phone:    utils.NormalizePhone(in.phone),
		City:     strings.TrimSpace(in.city),
		Plan:     in.plan,
		Status:   models.InstituteStatusActive,
		Timezone: "Asia/Kolkata",
	}
	user := &auth.InstituteUser{
		Email:         in.email,
		Name:          in.adminName,
		PhoneNumber:   utils.NormalizePhone(in.phone),
		Role:          auth.RoleInstituteAdmin,
		PasswordHash:  hash,
		OAuthProvider: "email",
		IsActive:      true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.institutes.WithTx(tx)
		slug, err := uniqueSlug(repo, in.name)
		if err != nil {
			return err
		}
		institute.Slug = slug
		if err := repo.Create(institute); err != nil {
			return fmt.Errorf("failed to create institute: %w", err)
		}

		user.InstituteID = &institute.ID
		if err := s.authSvc.Repository().CreateUser(tx, user); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		if inTx != nil {
			return inTx(tx)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return user, institute, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases name and joins its words with dashes
func Slugify(name string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		slug = "institute"
	}
	return slug
}

func uniqueSlug(repo repositories.InstituteRepo, name string) (string, error) {
	base := Slugify(name)
	slug := base
	for i := 2; ; i++ {
		taken, err := repo.SlugExists(slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
