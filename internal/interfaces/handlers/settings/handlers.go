package settings

import (
	settingssvc "club25-backend/internal/application/settings"
	"club25-backend/internal/interfaces/handlers/httperr"
	"club25-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the back-office settings form.
type Handlers struct {
	Settings *settingssvc.Service
}

// Get GET /api/admin/settings
func (h *Handlers) Get(c *fiber.Ctx) error {
	site, err := h.Settings.Get(c.Context())
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Settings fetched successfully", site, nil)
}

// Update PUT /api/admin/settings: partial JSON; omitted keys keep their values.
func (h *Handlers) Update(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return response.Error(c, settingssvc.ErrInvalidSettings.Error(), fiber.StatusBadRequest, nil)
	}
	site, err := h.Settings.Update(c.Context(), body)
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Settings updated successfully", site, nil)
}
