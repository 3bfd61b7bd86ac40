package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"club25-backend/internal/application/admission"
	"club25-backend/internal/application/checkin"
	"club25-backend/internal/application/drops"
	"club25-backend/internal/application/invites"
	"club25-backend/internal/application/rsvps"
	"club25-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{admission.ErrInviteExhausted, fiber.StatusBadRequest},
		{&rsvps.DuplicateError{Status: "confirmed"}, fiber.StatusBadRequest},
		{&admission.BypassError{RedirectTo: "/x"}, fiber.StatusBadRequest},
		{&validation.Error{Field: "Name", Message: "Name is required"}, fiber.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", drops.ErrNotFound), fiber.StatusNotFound},
		{checkin.ErrNotFound, fiber.StatusNotFound},
		{&checkin.NotConfirmedError{Status: "waitlist"}, fiber.StatusConflict},
		{invites.ErrCodeTaken, fiber.StatusConflict},
		{errors.New("db down"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func publicBody(t *testing.T, err error) (int, map[string]interface{}) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return Public(c, err, "Failed to create RSVP") })
	resp, e := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, e)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestPublic_Shapes(t *testing.T) {
	status, body := publicBody(t, &rsvps.DuplicateError{Status: "waitlist"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "You already have an RSVP for this drop", body["error"])
	assert.Equal(t, "waitlist", body["status"])

	status, body = publicBody(t, &admission.BypassError{RedirectTo: "/austin-alishba"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "/austin-alishba", body["redirectTo"])

	status, body = publicBody(t, errors.New("connection reset"))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to create RSVP", body["error"])
}

func TestAdmin_Envelope(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return Admin(c, &checkin.NotConfirmedError{Status: "cancelled"}) })
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
		Error  struct {
			Message    string                 `json:"message"`
			StatusCode int                    `json:"statusCode"`
			Details    map[string]interface{} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "Cannot check in: Status is cancelled", body.Error.Message)
	assert.Equal(t, "cancelled", body.Error.Details["status"])
}
