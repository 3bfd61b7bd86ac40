package guests

import (
	"bytes"
	"strings"

	"club25-backend/internal/application/admission"
	"club25-backend/internal/application/analytics"
	guestsvc "club25-backend/internal/application/guests"
	"club25-backend/internal/application/rsvps"
	"club25-backend/internal/interfaces/handlers/httperr"
	"club25-backend/internal/middleware"
	"club25-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers serves the admin guest list and the guest "my drops" sign-in.
type Handlers struct {
	Ledger     *rsvps.Ledger
	Admission  *admission.Service
	Analytics  *analytics.Service
	MagicLinks *guestsvc.MagicLinks
}

func filterFromQuery(c *fiber.Ctx) (rsvps.GuestFilter, error) {
	f := rsvps.GuestFilter{
		Status: strings.TrimSpace(c.Query("status")),
		Search: c.Query("search"),
	}
	if raw := strings.TrimSpace(c.Query("drop_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, err
		}
		f.DropID = &id
	}
	return f, nil
}

// List GET /api/admin/guests?drop_id=&status=&search=
func (h *Handlers) List(c *fiber.Ctx) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return response.Error(c, "Invalid drop_id", fiber.StatusBadRequest, nil)
	}
	list, err := h.Ledger.ListGuests(c.Context(), f)
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Guests fetched successfully", list, fiber.Map{"count": len(list)})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus PATCH /api/admin/guests/:id/status: confirmed | waitlist | cancelled.
func (h *Handlers) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid RSVP id", fiber.StatusBadRequest, nil)
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	r, err := h.Admission.ChangeStatus(c.Context(), id, req.Status)
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "RSVP status updated", r, nil)
}

// Export GET /api/admin/guests/export: the filtered list as CSV.
func (h *Handlers) Export(c *fiber.Ctx) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return response.Error(c, "Invalid drop_id", fiber.StatusBadRequest, nil)
	}
	var buf bytes.Buffer
	if err := h.Analytics.WriteGuestsCSV(c.Context(), &buf, h.Ledger, f); err != nil {
		return httperr.Admin(c, err)
	}
	return response.CSV(c, "club25-guests.csv", buf.Bytes())
}

type magicLinkRequest struct {
	Email string `json:"email"`
}

// MagicLink POST /api/auth/magic-link: always 200 for a well-formed email.
func (h *Handlers) MagicLink(c *fiber.Ctx) error {
	var req magicLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.MagicLinks.Request(c.Context(), req.Email); err != nil {
		return httperr.Public(c, err, "Failed to send sign-in link")
	}
	return c.JSON(fiber.Map{"success": true, "message": "If you have reserved with us, a sign-in link is on its way."})
}

// MyRSVPs GET /api/my/rsvps: reservations of the guest named by the bearer token.
func (h *Handlers) MyRSVPs(c *fiber.Ctx) error {
	guest := middleware.GetGuest(c)
	if guest == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	list, err := h.Ledger.ForGuest(c.Context(), guest.GuestID)
	if err != nil {
		return httperr.Public(c, err, "Failed to fetch reservations")
	}
	return c.JSON(fiber.Map{"email": guest.Email, "rsvps": list})
}
