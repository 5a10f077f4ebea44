package handler

import (
	"time"

	"go-pharmacy-ledger/internal/apperr"
	"go-pharmacy-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetStats handles GET /dashboard/stats
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.dashboardService.GetStats()
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, stats)
}

// GetFinancialSummary handles GET /dashboard/financials
func (h *DashboardHandler) GetFinancialSummary(c *fiber.Ctx) error {
	to := time.Now()
	from := to.AddDate(0, -1, 0)

	if raw := c.Query("date_from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return respondError(c, apperr.Validationf("date_from must be YYYY-MM-DD"))
		}
		from = parsed
	}
	if raw := c.Query("date_to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return respondError(c, apperr.Validationf("date_to must be YYYY-MM-DD"))
		}
		// Include the whole end day.
		to = parsed.AddDate(0, 0, 1).Add(-time.Second)
	}
	if from.After(to) {
		return respondError(c, apperr.Validationf("date_from must not be after date_to"))
	}

	summary, err := h.dashboardService.GetFinancialSummary(from, to)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, summary)
}
