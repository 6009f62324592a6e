package auth

import (
	"errors"

	"github.com/adwelink/ams-api/internal/core/audit"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Handler struct {
	authService *Service
	audit       *audit.Service
}

// NewHandler creates a new auth handler. auditSvc may be nil.
func NewHandler(authService *Service, auditSvc *audit.Service) *Handler {
	return &Handler{
		authService: authService,
		audit:       auditSvc,
	}
}

// Login godoc
// @Summary Login with email and password
// @Description Authenticate a console user and return JWT tokens
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /auth/login [post]
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and password are required",
		})
	}

	authResponse, err := h.authService.Login(&req)
	if err != nil {
		return h.loginError(c, req.Email, err)
	}

	h.logSession(c, authResponse, audit.ActionLogin)
	return c.JSON(authResponse)
}

// LoginWithGoogle godoc
// @Summary Login with Google
// @Description Authenticate an existing console user with a Google ID token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body GoogleLoginRequest true "Google ID token"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/google [post]
func (h *Handler) LoginWithGoogle(c *fiber.Ctx) error {
	var req GoogleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.GoogleIDToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "google_id_token is required",
		})
	}

	authResponse, err := h.authService.LoginWithGoogle(c.UserContext(), req.GoogleIDToken)
	if err != nil {
		if errors.Is(err, ErrUnknownGoogleUser) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return h.loginError(c, "google", err)
	}

	h.logSession(c, authResponse, audit.ActionLogin)
	return c.JSON(authResponse)
}

// RefreshToken godoc
// @Summary Refresh access token
// @Description Exchange a refresh token for a new token pair
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "Refresh token"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/refresh [post]
func (h *Handler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "refresh_token is required",
		})
	}

	authResponse, err := h.authService.RefreshToken(req.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("❌ Token refresh failed")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired refresh token",
		})
	}

	return c.JSON(authResponse)
}

// Logout godoc
// @Summary Logout user
// @Description Revoke the user's refresh token
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/logout [post]
func (h *Handler) Logout(c *fiber.Ctx) error {
	userID := Claims(c).UserID
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	if err := h.authService.Logout(userID); err != nil {
		log.Error().Err(err).Msg("❌ Logout failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to logout",
		})
	}

	if h.audit != nil {
		h.audit.LogAction(c.UserContext(), ActorFromCtx(c), audit.ActionLogout, "user", userID, "")
	}

	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// Me godoc
// @Summary Get current user
// @Description Authenticated user with institute summary
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/me [get]
func (h *Handler) Me(c *fiber.Ctx) error {
	userID := Claims(c).UserID
	user, institute, err := h.authService.Me(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load profile",
		})
	}

	return c.JSON(fiber.Map{
		"user":      user,
		"institute": institute,
	})
}

type createUserRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

// ListUsers godoc
// @Summary List institute users
// @Tags Institute
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /institute/users [get]
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	instituteID, err := InstituteID(c)
	if err != nil {
		return fiber.ErrForbidden
	}

	users, err := h.authService.Repository().ListByInstitute(instituteID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list users",
		})
	}

	return c.JSON(fiber.Map{
		"users": users,
		"total": len(users),
	})
}

// CreateUser godoc
// @Summary Add a staff or admin user to the institute
// @Tags Institute
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createUserRequest true "User"
// @Success 201 {object} InstituteUser
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /institute/users [post]
func (h *Handler) CreateUser(c *fiber.Ctx) error {
	instituteID, err := InstituteID(c)
	if err != nil {
		return fiber.ErrForbidden
	}

	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Email == "" || req.Name == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required fields: email, name, password",
		})
	}
	if req.Role == "" {
		req.Role = RoleStaff
	}

	user, err := h.authService.CreateUser(instituteID, req.Email, req.Name, req.PhoneNumber, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if h.audit != nil {
		h.audit.LogChange(c.UserContext(), ActorFromCtx(c), audit.ActionCreate, "user", user.ID.String(), nil, toUserInfo(user))
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// DeactivateUser godoc
// @Summary Disable an institute user
// @Tags Institute
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /institute/users/{id} [delete]
func (h *Handler) DeactivateUser(c *fiber.Ctx) error {
	instituteID, err := InstituteID(c)
	if err != nil {
		return fiber.ErrForbidden
	}

	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	if self, _ := UserID(c); self == userID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "You cannot deactivate your own account",
		})
	}

	if err := h.authService.Repository().SetActive(instituteID, userID, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to deactivate user",
		})
	}

	if h.audit != nil {
		h.audit.LogAction(c.UserContext(), ActorFromCtx(c), audit.ActionDeactivate, "user", userID.String(), "")
	}

	return c.JSON(fiber.Map{
		"message": "User deactivated",
	})
}

func (h *Handler) loginError(c *fiber.Ctx, who string, err error) error {
	log.Warn().Err(err).Str("who", who).Msg("❌ Login failed")

	switch {
	case errors.Is(err, ErrUserInactive), errors.Is(err, ErrInstituteSuspended):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	case errors.Is(err, ErrUnknownGoogleUser), errors.Is(err, ErrGoogleEmailUnverified):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication failed",
		})
	}
}

func (h *Handler) logSession(c *fiber.Ctx, resp *AuthResponse, action string) {
	if h.audit == nil || resp == nil || resp.User == nil {
		return
	}
	actor := audit.Actor{IPAddress: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
	if id, err := uuid.Parse(resp.User.ID); err == nil {
		actor.UserID = &id
	}
	if resp.Institute != nil {
		if id, err := uuid.Parse(resp.Institute.ID); err == nil {
			actor.InstituteID = &id
		}
	}
	h.audit.LogAction(c.UserContext(), actor, action, "user", resp.User.ID, "")
}

// ActorFromCtx builds an audit actor from the authenticated request.
func ActorFromCtx(c *fiber.Ctx) audit.Actor {
	actor := audit.Actor{IPAddress: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
	if id, err := UserID(c); err == nil {
		actor.UserID = &id
	}
	if id, err := InstituteID(c); err == nil {
		actor.InstituteID = &id
	}
	return actor
}
