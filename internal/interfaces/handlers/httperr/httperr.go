// Package httperr maps service errors onto HTTP status codes and response bodies.
package httperr

import (
	"errors"

	"club25-backend/internal/application/admission"
	"club25-backend/internal/application/checkin"
	"club25-backend/internal/application/drops"
	"club25-backend/internal/application/guests"
	"club25-backend/internal/application/invites"
	"club25-backend/internal/application/rsvps"
	"club25-backend/internal/application/settings"
	"club25-backend/internal/application/uploads"
	"club25-backend/internal/auth"
	"club25-backend/internal/middleware"
	"club25-backend/internal/pkg/response"
	"club25-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

var badRequest = []error{
	admission.ErrInviteRequired,
	admission.ErrInviteInvalid,
	admission.ErrInviteExhausted,
	admission.ErrInviteExpired,
	rsvps.ErrDropUnavailable,
	rsvps.ErrWaitlistClosed,
	rsvps.ErrInvalidStatus,
	drops.ErrInvalidStatus,
	invites.ErrInvalidFormat,
	invites.ErrInvalidSource,
	invites.ErrInvalidUses,
	invites.ErrExhausted,
	invites.ErrExpired,
	guests.ErrEmailRequired,
	checkin.ErrInvalidPayload,
	settings.ErrInvalidSettings,
	uploads.ErrFileNameRequired,
	uploads.ErrURLRequired,
	uploads.ErrInvalidMediaType,
	auth.ErrEmailPasswordRequired,
	auth.ErrInvalidRole,
	auth.ErrWeakPassword,
}

var notFound = []error{
	drops.ErrNotFound,
	invites.ErrNotFound,
	rsvps.ErrNotFound,
	guests.ErrNotFound,
	checkin.ErrNotFound,
	uploads.ErrNotFound,
	uploads.ErrDropNotFound,
}

var conflict = []error{
	drops.ErrSlugTaken,
	invites.ErrCodeTaken,
	auth.ErrAdminExists,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// Status returns the HTTP status for a known service error, or 500.
func Status(err error) int {
	var (
		dup    *rsvps.DuplicateError
		bypass *admission.BypassError
		nc     *checkin.NotConfirmedError
	)
	switch {
	case err == nil:
		return fiber.StatusOK
	case validation.IsError(err), errors.As(err, &dup), errors.As(err, &bypass), isAny(err, badRequest):
		return fiber.StatusBadRequest
	case isAny(err, notFound):
		return fiber.StatusNotFound
	case errors.As(err, &nc), isAny(err, conflict):
		return fiber.StatusConflict
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrIncorrectPassword), errors.Is(err, auth.ErrInvalidToken):
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}

// Public writes the guest-facing {"error": ...} body. Unexpected errors are logged and
// answered with fallback instead of the raw message.
func Public(c *fiber.Ctx, err error, fallback string) error {
	status := Status(err)
	if status == fiber.StatusInternalServerError {
		logUnexpected(c, err)
		return c.Status(status).JSON(fiber.Map{"error": fallback})
	}
	body := fiber.Map{"error": err.Error()}
	var (
		dup    *rsvps.DuplicateError
		bypass *admission.BypassError
	)
	if errors.As(err, &dup) {
		body["status"] = dup.Status
	}
	if errors.As(err, &bypass) {
		body["redirectTo"] = bypass.RedirectTo
	}
	return c.Status(status).JSON(body)
}

// Admin writes the standard error envelope used by the back office.
func Admin(c *fiber.Ctx, err error) error {
	status := Status(err)
	if status == fiber.StatusInternalServerError {
		logUnexpected(c, err)
		return response.Error(c, "Internal Server Error", status, nil)
	}
	var nc *checkin.NotConfirmedError
	if errors.As(err, &nc) {
		return response.Error(c, err.Error(), status, fiber.Map{"status": nc.Status})
	}
	return response.Error(c, err.Error(), status, nil)
}

func logUnexpected(c *fiber.Ctx, err error) {
	logger := middleware.Logger(c)
	logger.Error().Err(err).Msg("request failed")
}
