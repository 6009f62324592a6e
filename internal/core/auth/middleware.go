package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const claimsKey = "auth.claims"

// TokenValidator is the part of Service the middleware needs
type TokenValidator interface {
	ValidateToken(accessToken string) (*TokenClaims, error)
}

func deny(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AuthMiddleware validates the bearer token and stores its claims on the
// request for the accessors below.
func AuthMiddleware(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return deny(c, fiber.StatusUnauthorized, "Missing authorization header")
		}

		token, ok := bearerToken(header)
		if !ok {
			return deny(c, fiber.StatusUnauthorized, "Invalid authorization header format. Use: Bearer <token>")
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			return deny(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// RequireRole lets the request through only for the listed roles
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *fiber.Ctx) error {
		role := Role(c)
		if role == "" {
			return deny(c, fiber.StatusUnauthorized, "Unauthorized")
		}
		if !allowed[role] {
			return deny(c, fiber.StatusForbidden, "Insufficient permissions")
		}
		return c.Next()
	}
}

// RequireInstitute rejects tokens that are not bound to an institute.
// Tenant routes sit behind it.
func RequireInstitute() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := InstituteID(c); err != nil {
			return deny(c, fiber.StatusForbidden, "No institute associated with this account")
		}
		return c.Next()
	}
}

// Claims returns the validated token claims, or an empty set on
// unauthenticated routes.
func Claims(c *fiber.Ctx) *TokenClaims {
	if claims, ok := c.Locals(claimsKey).(*TokenClaims); ok && claims != nil {
		return claims
	}
	return &TokenClaims{}
}

func InstituteID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(Claims(c).InstituteID)
}

func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(Claims(c).UserID)
}

func Role(c *fiber.Ctx) string {
	return Claims(c).Role
}
