package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adwelink/ams-api/internal/core/auth"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
)

func signupReq(code, email string) *models.SignupRequest {
	return &models.SignupRequest{
		InviteCode:    code,
		InstituteName: "Sunrise Coaching Centre",
		City:          "Pune",
		AdminName:     "Priya",
		Email:         email,
		Password:      "password123",
		Phone:         "+91 98765 43210",
	}
}

func TestSignupConsumesInvite(t *testing.T) {
	e := newEnv(t)
	e.inviteRepo.Create(&models.InviteCode{Code: "PILOT1", MaxUses: 1, IsActive: true})

	resp, err := e.onboarding.Signup(context.Background(), signupReq("pilot1", "Priya@Sunrise.in"))
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if resp.AccessToken == "" || resp.Institute == nil || resp.Institute.Slug != "sunrise-coaching-centre" {
		t.Errorf("response = %+v", resp)
	}
	if resp.User.Role != auth.RoleInstituteAdmin {
		t.Errorf("role = %s", resp.User.Role)
	}

	code, _ := e.inviteRepo.GetByCode("PILOT1")
	if code.UsedCount != 1 {
		t.Errorf("UsedCount = %d", code.UsedCount)
	}

	_, err = e.onboarding.Signup(context.Background(), signupReq("PILOT1", "other@sunrise.in"))
	if !errors.Is(err, ErrInviteExhausted) {
		t.Errorf("second signup err = %v, want ErrInviteExhausted", err)
	}
}

func TestSignupRejections(t *testing.T) {
	e := newEnv(t)
	past := time.Now().Add(-time.Hour)
	e.inviteRepo.Create(&models.InviteCode{Code: "OLD", MaxUses: 5, IsActive: true, ExpiresAt: &past})
	e.inviteRepo.Create(&models.InviteCode{Code: "OPEN", MaxUses: 5, IsActive: true})

	tests := []struct {
		name string
		req  *models.SignupRequest
		want error
	}{
		{"unknown code", signupReq("NOPE", "a@x.in"), ErrInviteInvalid},
		{"expired code", signupReq("old", "a@x.in"), ErrInviteExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.onboarding.Signup(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	short := signupReq("OPEN", "a@x.in")
	short.Password = "short"
	var verr *ValidationError
	if _, err := e.onboarding.Signup(context.Background(), short); !errors.As(err, &verr) {
		t.Errorf("short password err = %v", err)
	}

	if _, err := e.onboarding.Signup(context.Background(), signupReq("OPEN", "dup@x.in")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.onboarding.Signup(context.Background(), signupReq("OPEN", "DUP@x.in")); !errors.Is(err, auth.ErrEmailTaken) {
		t.Errorf("duplicate email err = %v", err)
	}

	// failed signups must not consume uses
	code, _ := e.inviteRepo.GetByCode("OPEN")
	if code.UsedCount != 1 {
		t.Errorf("UsedCount = %d, want 1", code.UsedCount)
	}
}

func TestProvisionMakesUniqueSlug(t *testing.T) {
	e := newEnv(t)
	req := &models.ProvisionInstituteRequest{Name: "Sunrise Academy", AdminName: "A", AdminEmail: "a@x.in", AdminPassword: "password123"}
	first, err := e.onboarding.Provision(req)
	if err != nil {
		t.Fatal(err)
	}
	req.AdminEmail = "b@x.in"
	second, err := e.onboarding.Provision(req)
	if err != nil {
		t.Fatal(err)
	}
	if first.Slug != "sunrise-academy" || second.Slug != "sunrise-academy-2" {
		t.Errorf("slugs = %s, %s", first.Slug, second.Slug)
	}
}

func TestInviteValidateAndGenerate(t *testing.T) {
	e := newEnv(t)
	svc := NewInviteService(e.inviteRepo)

	created, err := svc.Create(&models.CreateInviteCodeRequest{MaxUses: 3}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(created.Code) != 8 {
		t.Errorf("generated code = %q", created.Code)
	}

	res, _ := svc.Validate(created.Code)
	if !res.Valid {
		t.Errorf("fresh code invalid: %+v", res)
	}
	svc.Deactivate(created.ID)
	res, _ = svc.Validate(created.Code)
	if res.Valid || res.Reason != models.InviteReasonInactive {
		t.Errorf("deactivated = %+v", res)
	}
	res, _ = svc.Validate("missing")
	if res.Reason != models.InviteReasonNotFound {
		t.Errorf("missing = %+v", res)
	}

	if _, err := svc.Create(&models.CreateInviteCodeRequest{Code: "x", ExpiresAt: "2001-01-01"}, nil); err == nil {
		t.Error("past expiry accepted")
	}
}
