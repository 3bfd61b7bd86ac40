package analytics

import (
	"bytes"

	analyticssvc "club25-backend/internal/application/analytics"
	"club25-backend/internal/interfaces/handlers/httperr"
	"club25-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the admin dashboard numbers and reports.
type Handlers struct {
	Analytics *analyticssvc.Service
}

// Dashboard GET /api/admin/stats
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	d, err := h.Analytics.Dashboard(c.Context())
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Dashboard stats fetched successfully", d, nil)
}

// Report GET /api/admin/analytics
func (h *Handlers) Report(c *fiber.Ctx) error {
	r, err := h.Analytics.Report(c.Context())
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Analytics fetched successfully", r, nil)
}

// ExportDrops GET /api/admin/analytics/export
func (h *Handlers) ExportDrops(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.Analytics.WriteDropsCSV(c.Context(), &buf); err != nil {
		return httperr.Admin(c, err)
	}
	return response.CSV(c, "club25-analytics.csv", buf.Bytes())
}
