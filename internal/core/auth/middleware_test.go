package auth

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type mockValidator struct {
	ValidateTokenFunc func(string) (*TokenClaims, error)
}

func (m *mockValidator) ValidateToken(token string) (*TokenClaims, error) {
	return m.ValidateTokenFunc(token)
}

func newTestApp(v TokenValidator, extra ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := append([]fiber.Handler{AuthMiddleware(v)}, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		id, _ := InstituteID(c)
		return c.SendString(id.String())
	})
	app.Get("/p", handlers...)
	return app
}

func TestAuthMiddleware(t *testing.T) {
	v := &mockValidator{ValidateTokenFunc: func(token string) (*TokenClaims, error) {
		if token != "good" {
			return nil, errors.New("bad token")
		}
		return &TokenClaims{UserID: "u", Role: RoleStaff, InstituteID: "7f2d0c3e-8b1a-4c55-9d2e-1a2b3c4d5e6f"}, nil
	}}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"not bearer", "Basic abc", fiber.StatusUnauthorized},
		{"invalid token", "Bearer nope", fiber.StatusUnauthorized},
		{"valid token", "Bearer good", fiber.StatusOK},
	}

	app := newTestApp(v, RequireInstitute())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/p", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestRequireRoleAndInstitute(t *testing.T) {
	superAdmin := &mockValidator{ValidateTokenFunc: func(string) (*TokenClaims, error) {
		return &TokenClaims{UserID: "u", Role: RoleSuperAdmin}, nil
	}}

	tests := []struct {
		name  string
		extra []fiber.Handler
		want  int
	}{
		{"role allowed", []fiber.Handler{RequireRole(RoleSuperAdmin)}, fiber.StatusOK},
		{"role denied", []fiber.Handler{RequireRole(RoleInstituteAdmin, RoleStaff)}, fiber.StatusForbidden},
		{"no institute", []fiber.Handler{RequireInstitute()}, fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(superAdmin, tt.extra...)
			req := httptest.NewRequest("GET", "/p", nil)
			req.Header.Set("Authorization", "Bearer x")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
		{"Token abc", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
