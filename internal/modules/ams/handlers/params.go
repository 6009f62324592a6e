package handlers

import (
	"strings"
	"time"

	"github.com/adwelink/ams-api/internal/core/auth"
	"github.com/araddon/dateparse"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// tenant returns the institute id and acting user of a tenant request.
// The user id is nil for tokens without one.
func tenant(c *fiber.Ctx) (uuid.UUID, *uuid.UUID, error) {
	instituteID, err := auth.InstituteID(c)
	if err != nil {
		return uuid.Nil, nil, fiber.ErrForbidden
	}
	if userID, err := auth.UserID(c); err == nil {
		return instituteID, &userID, nil
	}
	return instituteID, nil, nil
}

func pathID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func queryUUID(c *fiber.Ctx, key string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	t, err := dateparse.ParseLocal(raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func queryBool(c *fiber.Ctx, key string) *bool {
	switch strings.ToLower(c.Query(key)) {
	case "true", "1", "yes":
		v := true
		return &v
	case "false", "0", "no":
		v := false
		return &v
	}
	return nil
}
