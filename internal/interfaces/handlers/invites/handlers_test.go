package invites

import (
	"strings"
	"testing"

	invitesvc "club25-backend/internal/application/invites"
	"club25-backend/internal/application/settings"
	"club25-backend/internal/interfaces/handlers/handlertest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *fiber.App {
	db := handlertest.DB(t)
	h := &Handlers{Invites: &invitesvc.Service{DB: db}, Settings: &settings.Service{DB: db}}
	app := fiber.New()
	handlertest.AsAdmin(app)
	app.Get("/api/admin/invites", h.List)
	app.Post("/api/admin/invites", h.Create)
	app.Patch("/api/admin/invites/:id", h.Toggle)
	app.Delete("/api/admin/invites/:id", h.Delete)
	return app
}

func TestCreate_GeneratedCodeUsesDefaults(t *testing.T) {
	app := setup(t)

	resp := handlertest.Do(t, app, "POST", "/api/admin/invites", map[string]interface{}{})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	data := handlertest.Data(t, resp)
	code := data["code"].(string)
	assert.True(t, strings.HasPrefix(code, "CLUB-"))
	assert.Len(t, code, len("CLUB-")+6)
	assert.Equal(t, float64(settings.Defaults().InviteCodeDefaultUses), data["max_uses"])
	assert.Equal(t, true, data["active"])
	assert.Nil(t, data["expires_at"])
}

func TestCreate_CustomCode(t *testing.T) {
	app := setup(t)

	body := map[string]interface{}{"code": "club-friends", "max_uses": 10, "source": "founder", "expires_in_days": 7}
	resp := handlertest.Do(t, app, "POST", "/api/admin/invites", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	data := handlertest.Data(t, resp)
	assert.Equal(t, "CLUB-FRIENDS", data["code"])
	assert.NotNil(t, data["expires_at"])

	resp = handlertest.Do(t, app, "POST", "/api/admin/invites", body)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Invite code already exists", handlertest.ErrorMessage(t, resp))

	resp = handlertest.Do(t, app, "POST", "/api/admin/invites", map[string]interface{}{"source": "stranger"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestToggleAndDelete(t *testing.T) {
	app := setup(t)

	resp := handlertest.Do(t, app, "POST", "/api/admin/invites", map[string]interface{}{"code": "CLUB-OFF"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := handlertest.Data(t, resp)["id"].(string)

	resp = handlertest.Do(t, app, "PATCH", "/api/admin/invites/"+id, map[string]bool{"active": false})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, handlertest.Data(t, resp)["active"])

	resp = handlertest.Do(t, app, "GET", "/api/admin/invites", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := handlertest.JSON(t, resp)
	assert.Len(t, body["data"], 1)

	resp = handlertest.Do(t, app, "DELETE", "/api/admin/invites/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = handlertest.Do(t, app, "DELETE", "/api/admin/invites/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
