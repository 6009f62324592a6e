package handlers

import (
	"github.com/adwelink/ams-api/internal/modules/ams/services"
	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
}

func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GetDashboard godoc
// @Summary Institute dashboard
// @Description Lead counts, conversion rate, conversation activity, fee totals and the 7-day lead trend
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Dashboard
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	d, err := h.dashboard.Institute(c.UserContext(), instituteID)
	if err != nil {
		return fail(c, err, "Failed to load dashboard")
	}
	return c.JSON(d)
}
