package auth

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", 0, 0)

	token, expiresIn, err := svc.GenerateAccessToken(&TokenClaims{
		UserID:      "u-1",
		Email:       "a@b.in",
		Role:        RoleInstituteAdmin,
		InstituteID: "i-1",
	})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if expiresIn != int64((15 * time.Minute).Seconds()) {
		t.Errorf("expiresIn = %d", expiresIn)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != "u-1" || claims.Role != RoleInstituteAdmin || claims.InstituteID != "i-1" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, _, err := NewJWTService("one", 0, 0).GenerateAccessToken(&TokenClaims{UserID: "u"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewJWTService("two", 0, 0).ValidateAccessToken(token); err == nil {
		t.Error("expected error for token signed with another secret")
	}
}

func TestExpiredAccessToken(t *testing.T) {
	svc := NewJWTService("secret", time.Nanosecond, 0)
	token, _, err := svc.GenerateAccessToken(&TokenClaims{UserID: "u"})
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := svc.ValidateAccessToken(token); err == nil {
		t.Error("expected expired token to fail validation")
	}
}

func TestRefreshTokenTypeIsEnforced(t *testing.T) {
	svc := NewJWTService("secret", 0, 0)

	refresh, _, err := svc.GenerateRefreshToken("u-1")
	if err != nil {
		t.Fatal(err)
	}
	userID, err := svc.ValidateRefreshToken(refresh)
	if err != nil || userID != "u-1" {
		t.Fatalf("ValidateRefreshToken = %q, %v", userID, err)
	}
	if _, err := svc.ValidateAccessToken(refresh); err == nil {
		t.Error("refresh token accepted as access token")
	}

	access, _, _ := svc.GenerateAccessToken(&TokenClaims{UserID: "u-1"})
	if _, err := svc.ValidateRefreshToken(access); err == nil {
		t.Error("access token accepted as refresh token")
	}
}

func TestPasswordHashing(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Error("expected error for short password")
	}

	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := VerifyPassword(hash, "correct-horse"); err != nil {
		t.Errorf("VerifyPassword(correct) = %v", err)
	}
	if err := VerifyPassword(hash, "wrong-horse"); err == nil {
		t.Error("VerifyPassword(wrong) succeeded")
	}
}
