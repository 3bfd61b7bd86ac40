package admission

import (
	"errors"
	"strings"

	admissionsvc "club25-backend/internal/application/admission"
	"club25-backend/internal/application/invites"
	"club25-backend/internal/interfaces/handlers/httperr"
	"club25-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers serves the guest-facing invite and RSVP endpoints.
type Handlers struct {
	Admission *admissionsvc.Service
	Invites   *invites.Service
	Session   middleware.SessionConfig
}

type validateRequest struct {
	Code string `json:"code"`
}

// ValidateInvite POST /api/validate-invite: {valid, code[, redirectTo]} or 400 {error}.
// A valid code is remembered in the session so the RSVP form can omit it.
func (h *Handlers) ValidateInvite(c *fiber.Ctx) error {
	var req validateRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": invites.ErrInvalidFormat.Error()})
	}

	res, err := h.Invites.Validate(c.Context(), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, invites.ErrInvalidFormat),
			errors.Is(err, invites.ErrNotFound),
			errors.Is(err, invites.ErrExhausted),
			errors.Is(err, invites.ErrExpired):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("validate invite failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to validate code"})
	}

	h.remember(c, res.Code)
	return c.JSON(res)
}

func (h *Handlers) remember(c *fiber.Ctx, code string) {
	sid, fresh := middleware.EnsureSession(c)
	middleware.SetInviteCode(c, code)
	if fresh {
		cookie := middleware.SessionCookieConfig(h.Session)
		cookie.Value = "s:" + sid
		c.Cookie(&cookie)
	}
}

// RSVP POST /api/rsvp: places a reservation for the posted drop.
func (h *Handlers) RSVP(c *fiber.Ctx) error {
	var req admissionsvc.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	res, err := h.Admission.Admit(c.Context(), req, middleware.GetInviteCode(c))
	if err != nil {
		return httperr.Public(c, err, "Failed to create RSVP")
	}
	return c.JSON(res)
}

// Confirmation GET /api/confirmations/:code: the guest's ticket page.
func (h *Handlers) Confirmation(c *fiber.Ctx) error {
	t, err := h.Admission.Ticket(c.Context(), c.Params("code"))
	if err != nil {
		return httperr.Public(c, err, "Failed to load confirmation")
	}
	return c.JSON(t)
}
