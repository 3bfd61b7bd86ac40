package drops

import (
	dropsvc "club25-backend/internal/application/drops"
	"club25-backend/internal/application/notifications"
	"club25-backend/internal/interfaces/handlers/httperr"
	"club25-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers serves the public drop pages and the admin drop editor.
type Handlers struct {
	Drops     *dropsvc.Service
	Scheduler *notifications.Scheduler
}

// Current GET /api/drops/current: {drop} or {drop: null}.
func (h *Handlers) Current(c *fiber.Ctx) error {
	v, err := h.Drops.Current(c.Context())
	if err != nil {
		return httperr.Public(c, err, "Failed to fetch drop")
	}
	return c.JSON(fiber.Map{"drop": v})
}

// Archive GET /api/drops/archive
func (h *Handlers) Archive(c *fiber.Ctx) error {
	ds, err := h.Drops.Archive(c.Context())
	if err != nil {
		return httperr.Public(c, err, "Failed to fetch archive")
	}
	return c.JSON(fiber.Map{"drops": ds})
}

// BySlug GET /api/drops/:slug
func (h *Handlers) BySlug(c *fiber.Ctx) error {
	v, err := h.Drops.BySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return httperr.Public(c, err, "Failed to fetch drop")
	}
	return c.JSON(fiber.Map{"drop": v})
}

// Gallery GET /api/drops/:slug/gallery
func (h *Handlers) Gallery(c *fiber.Ctx) error {
	media, err := h.Drops.Gallery(c.Context(), c.Params("slug"))
	if err != nil {
		return httperr.Public(c, err, "Failed to fetch gallery")
	}
	return c.JSON(fiber.Map{"media": media})
}

func dropID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func invalidID(c *fiber.Ctx) error {
	return response.Error(c, "Invalid drop id", fiber.StatusBadRequest, nil)
}

// List GET /api/admin/drops
func (h *Handlers) List(c *fiber.Ctx) error {
	views, err := h.Drops.List(c.Context())
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Drops fetched successfully", views, fiber.Map{"count": len(views)})
}

// Get GET /api/admin/drops/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok := dropID(c)
	if !ok {
		return invalidID(c)
	}
	d, err := h.Drops.Get(c.Context(), id)
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Drop fetched successfully", d, nil)
}

// Create POST /api/admin/drops
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in dropsvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	d, err := h.Drops.Create(c.Context(), in)
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.SuccessCreated(c, "Drop created successfully", d, nil)
}

// Update PUT /api/admin/drops/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, ok := dropID(c)
	if !ok {
		return invalidID(c)
	}
	var in dropsvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	d, err := h.Drops.Update(c.Context(), id, in)
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Drop updated successfully", d, nil)
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetStatus PATCH /api/admin/drops/:id/status
func (h *Handlers) SetStatus(c *fiber.Ctx) error {
	id, ok := dropID(c)
	if !ok {
		return invalidID(c)
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	d, err := h.Drops.SetStatus(c.Context(), id, req.Status)
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Drop status updated", d, nil)
}

// Delete DELETE /api/admin/drops/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, ok := dropID(c)
	if !ok {
		return invalidID(c)
	}
	if err := h.Drops.Delete(c.Context(), id); err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Drop deleted successfully", nil, nil)
}

// SendRecap POST /api/admin/drops/:id/recap: queues the gallery e-mail to confirmed guests.
func (h *Handlers) SendRecap(c *fiber.Ctx) error {
	id, ok := dropID(c)
	if !ok {
		return invalidID(c)
	}
	if _, err := h.Drops.Get(c.Context(), id); err != nil {
		return httperr.Admin(c, err)
	}
	n, err := h.Scheduler.SendRecaps(c.Context(), id)
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Recap e-mails queued", fiber.Map{"queued": n}, nil)
}
