package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/adwelink/ams-api/internal/shared/database/dbtest"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testInstitute struct {
	ID        uuid.UUID `gorm:"primaryKey"`
	Name      string
	Slug      string
	Status    string
	Plan      string
	AIEnabled bool
}

func (testInstitute) TableName() string { return "institutes" }

type fakeGoogle struct {
	info *GoogleUserInfo
	err  error
}

func (f *fakeGoogle) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	return f.info, f.err
}

func setup(t *testing.T, google GoogleVerifier) (*Service, *gorm.DB, uuid.UUID) {
	t.Helper()
	db := dbtest.New(t, &InstituteUser{}, &testInstitute{})

	instituteID := uuid.New()
	if err := db.Create(&testInstitute{ID: instituteID, Name: "Bright Minds", Slug: "bright-minds", Status: "active", Plan: "pilot"}).Error; err != nil {
		t.Fatal(err)
	}

	svc := NewService(db, NewJWTService("secret", 0, 0), google)
	if _, err := svc.CreateUser(instituteID, "Admin@Bright.in", "Asha", "", "password123", RoleInstituteAdmin); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return svc, db, instituteID
}

func TestLogin(t *testing.T) {
	svc, _, instituteID := setup(t, nil)

	resp, err := svc.Login(&LoginRequest{Email: "admin@bright.in", Password: "password123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Institute == nil || resp.Institute.ID != instituteID.String() {
		t.Errorf("Institute = %+v", resp.Institute)
	}

	claims, err := svc.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.InstituteID != instituteID.String() || claims.Role != RoleInstituteAdmin {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := svc.Login(&LoginRequest{Email: "admin@bright.in", Password: "nope-nope"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := svc.Login(&LoginRequest{Email: "ghost@bright.in", Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v", err)
	}
}

func TestLoginSuspendedInstitute(t *testing.T) {
	svc, db, instituteID := setup(t, nil)

	db.Model(&testInstitute{}).Where("id = ?", instituteID).Update("status", "suspended")

	_, err := svc.Login(&LoginRequest{Email: "admin@bright.in", Password: "password123"})
	if !errors.Is(err, ErrInstituteSuspended) {
		t.Fatalf("err = %v, want ErrInstituteSuspended", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, _ := setup(t, nil)

	first, err := svc.Login(&LoginRequest{Email: "admin@bright.in", Password: "password123"})
	if err != nil {
		t.Fatal(err)
	}

	second, err := svc.RefreshToken(first.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	if _, err := svc.RefreshToken(first.RefreshToken); !errors.Is(err, ErrInvalidRefresh) {
		t.Errorf("reusing old refresh token err = %v", err)
	}
}

func TestLogoutRevokesRefresh(t *testing.T) {
	svc, _, _ := setup(t, nil)

	resp, _ := svc.Login(&LoginRequest{Email: "admin@bright.in", Password: "password123"})
	if err := svc.Logout(resp.User.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RefreshToken(resp.RefreshToken); err == nil {
		t.Error("refresh after logout succeeded")
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, _, instituteID := setup(t, nil)

	_, err := svc.CreateUser(instituteID, "ADMIN@bright.in", "Dup", "", "password123", RoleStaff)
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}

	if _, err := svc.CreateUser(instituteID, "x@bright.in", "X", "", "password123", RoleSuperAdmin); err == nil {
		t.Error("institute admin could create a super admin")
	}
}

func TestLoginWithGoogleLinksExistingUser(t *testing.T) {
	google := &fakeGoogle{info: &GoogleUserInfo{GoogleID: "g-1", Email: "admin@bright.in"}}
	svc, db, _ := setup(t, google)

	if _, err := svc.LoginWithGoogle(context.Background(), "token"); err != nil {
		t.Fatalf("LoginWithGoogle: %v", err)
	}

	var user InstituteUser
	db.Where("email = ?", "admin@bright.in").First(&user)
	if user.GoogleID == nil || *user.GoogleID != "g-1" {
		t.Errorf("GoogleID = %v, want g-1", user.GoogleID)
	}

	google.info = &GoogleUserInfo{GoogleID: "g-2", Email: "stranger@gmail.com"}
	if _, err := svc.LoginWithGoogle(context.Background(), "token"); !errors.Is(err, ErrUnknownGoogleUser) {
		t.Errorf("unknown google user err = %v", err)
	}
}

func TestCreateSuperAdmin(t *testing.T) {
	svc, _, _ := setup(t, nil)

	if _, err := svc.CreateSuperAdmin("ops@adwelink.in", "Ops", "short"); err == nil {
		t.Error("short password accepted")
	}

	user, err := svc.CreateSuperAdmin("Ops@Adwelink.in", "Ops", "password123")
	if err != nil {
		t.Fatalf("CreateSuperAdmin: %v", err)
	}
	if user.InstituteID != nil || user.Role != RoleSuperAdmin {
		t.Errorf("user = %+v", user)
	}

	resp, err := svc.Login(&LoginRequest{Email: "ops@adwelink.in", Password: "password123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Institute != nil {
		t.Errorf("super admin got institute %+v", resp.Institute)
	}

	if _, err := svc.CreateSuperAdmin("ops@adwelink.in", "Again", "password123"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate err = %v", err)
	}
}

func TestLoginRehashesWeakPassword(t *testing.T) {
	svc, db, _ := setup(t, nil)

	weak, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	db.Model(&InstituteUser{}).Where("email = ?", "admin@bright.in").Update("password_hash", string(weak))

	if _, err := svc.Login(&LoginRequest{Email: "admin@bright.in", Password: "password123"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	var user InstituteUser
	db.Where("email = ?", "admin@bright.in").First(&user)
	if NeedsRehash(user.PasswordHash) {
		t.Error("hash was not upgraded on login")
	}
	if VerifyPassword(user.PasswordHash, "password123") != nil {
		t.Error("upgraded hash does not verify")
	}
}
