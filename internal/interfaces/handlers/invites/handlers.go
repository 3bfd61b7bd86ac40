package invites

import (
	invitesvc "club25-backend/internal/application/invites"
	"club25-backend/internal/application/settings"
	"club25-backend/internal/interfaces/handlers/httperr"
	"club25-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handlers serves the admin invite-code screens.
type Handlers struct {
	Invites  *invitesvc.Service
	Settings *settings.Service
}

// CreateRequest is the admin "new code" form. Zero values fall back to the site defaults.
type CreateRequest struct {
	Code           string     `json:"code"`
	MaxUses        int        `json:"max_uses"`
	Source         string     `json:"source"`
	ExpiresInDays  *int       `json:"expires_in_days"`
	OwnerProfileID *uuid.UUID `json:"owner_profile_id"`
}

// List GET /api/admin/invites
func (h *Handlers) List(c *fiber.Ctx) error {
	codes, err := h.Invites.List(c.Context())
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Invite codes fetched successfully", codes, fiber.Map{"count": len(codes)})
}

// Create POST /api/admin/invites
func (h *Handlers) Create(c *fiber.Ctx) error {
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	site := settings.Defaults()
	if h.Settings != nil {
		if s, err := h.Settings.Get(c.Context()); err == nil {
			site = s
		} else {
			log.Warn().Err(err).Msg("settings unavailable; using invite defaults")
		}
	}
	in := invitesvc.CreateInput{
		Code:           req.Code,
		MaxUses:        req.MaxUses,
		Source:         req.Source,
		ExpiresInDays:  site.InviteCodeDefaultExpiry,
		OwnerProfileID: req.OwnerProfileID,
	}
	if in.MaxUses == 0 {
		in.MaxUses = site.InviteCodeDefaultUses
	}
	if req.ExpiresInDays != nil {
		in.ExpiresInDays = *req.ExpiresInDays
	}
	invite, err := h.Invites.Create(c.Context(), in)
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.SuccessCreated(c, "Invite code created successfully", invite, nil)
}

type toggleRequest struct {
	Active bool `json:"active"`
}

// Toggle PATCH /api/admin/invites/:id: {active}
func (h *Handlers) Toggle(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid invite id", fiber.StatusBadRequest, nil)
	}
	var req toggleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	invite, err := h.Invites.SetActive(c.Context(), id, req.Active)
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Invite code updated successfully", invite, nil)
}

// Delete DELETE /api/admin/invites/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid invite id", fiber.StatusBadRequest, nil)
	}
	if err := h.Invites.Delete(c.Context(), id); err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Invite code deleted successfully", nil, nil)
}
