package checkin

import (
	"strings"

	"club25-backend/internal/application/admission"
	checkinsvc "club25-backend/internal/application/checkin"
	"club25-backend/internal/infrastructure/realtime"
	"club25-backend/internal/interfaces/handlers/httperr"
	"club25-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handlers serves the door scanner.
type Handlers struct {
	Verifier *checkinsvc.Verifier
	Broker   realtime.Broker
}

type scanRequest struct {
	Payload string `json:"payload"`
}

type codeRequest struct {
	Code string `json:"code"`
}

// Scan POST /api/admin/checkin/scan: {payload} as read from the guest's QR code.
func (h *Handlers) Scan(c *fiber.Ctx) error {
	var req scanRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Payload) == "" {
		return response.Error(c, checkinsvc.ErrInvalidPayload.Error(), fiber.StatusBadRequest, nil)
	}
	res, err := h.Verifier.Verify(c.Context(), req.Payload)
	return h.respond(c, res, err)
}

// Code POST /api/admin/checkin/code: {code} typed in when the QR will not scan.
func (h *Handlers) Code(c *fiber.Ctx) error {
	var req codeRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		return response.Error(c, "Confirmation code is required", fiber.StatusBadRequest, nil)
	}
	res, err := h.Verifier.VerifyCode(c.Context(), req.Code)
	return h.respond(c, res, err)
}

func (h *Handlers) respond(c *fiber.Ctx, res *checkinsvc.Result, err error) error {
	if err != nil {
		return httperr.Admin(c, err)
	}
	log.Info().
		Str("drop", res.Drop.Slug).
		Str("confirmation_code", res.ConfirmationCode).
		Msg("guest checked in")
	realtime.Publish(c.Context(), h.Broker, realtime.Event{
		Type:      realtime.EventCheckinCompleted,
		DropID:    res.Drop.ID.String(),
		GuestName: admission.FirstName(res.Guest.Name),
		At:        res.CheckedInAt,
	})
	return response.Success(c, "Check-in successful", res, nil)
}

// Arrivals GET /api/admin/drops/:id/checkins
func (h *Handlers) Arrivals(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid drop id", fiber.StatusBadRequest, nil)
	}
	rows, err := h.Verifier.Arrivals(c.Context(), id)
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Check-ins fetched successfully", rows, fiber.Map{"count": len(rows)})
}
