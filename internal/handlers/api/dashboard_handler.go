package api

import (
	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	dashboardService DashboardService
}

func (h *DashboardHandler) GetDashboard(ctx *fiber.Ctx) error {
	stats, err := h.dashboardService.GetStats(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"success": true, "stats": stats})
}

func (h *DashboardHandler) GetActivities(ctx *fiber.Ctx) error {
	activities, pagination, err := h.dashboardService.GetActivities(ctx.Context(), ctx.Query("action"), pageRequest(ctx))
	if err != nil {
		return err
	}
	return sendPage(ctx, activities, pagination)
}

func NewDashboardHandler(dashboardService DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}
