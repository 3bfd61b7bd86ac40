package drops

import (
	"testing"
	"time"

	dropsvc "club25-backend/internal/application/drops"
	"club25-backend/internal/application/notifications"
	"club25-backend/internal/domain"
	"club25-backend/internal/interfaces/handlers/handlertest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*fiber.App, *gorm.DB, *notifications.MemoryQueue) {
	db := handlertest.DB(t)
	q := &notifications.MemoryQueue{}
	h := &Handlers{
		Drops:     &dropsvc.Service{DB: db},
		Scheduler: &notifications.Scheduler{DB: db, Dispatcher: &notifications.Dispatcher{Queue: q}},
	}
	app := fiber.New()
	app.Get("/api/drops/current", h.Current)
	app.Get("/api/drops/archive", h.Archive)
	app.Get("/api/drops/:slug", h.BySlug)
	app.Get("/api/drops/:slug/gallery", h.Gallery)

	handlertest.AsAdmin(app)
	app.Get("/api/admin/drops", h.List)
	app.Post("/api/admin/drops", h.Create)
	app.Get("/api/admin/drops/:id", h.Get)
	app.Put("/api/admin/drops/:id", h.Update)
	app.Patch("/api/admin/drops/:id/status", h.SetStatus)
	app.Delete("/api/admin/drops/:id", h.Delete)
	app.Post("/api/admin/drops/:id/recap", h.SendRecap)
	return app, db, q
}

func TestCurrent_NoneAndSome(t *testing.T) {
	app, db, _ := setup(t)

	resp := handlertest.Do(t, app, "GET", "/api/drops/current", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := handlertest.JSON(t, resp)
	assert.Contains(t, body, "drop")
	assert.Nil(t, body["drop"])

	handlertest.Drop(t, db, "spring", 12)
	resp = handlertest.Do(t, app, "GET", "/api/drops/current", nil)
	drop, ok := handlertest.JSON(t, resp)["drop"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "spring", drop["slug"])
	assert.Equal(t, float64(12), drop["seatsRemaining"])
	assert.Equal(t, float64(12), drop["totalSeats"])
}

func TestBySlugAndGallery(t *testing.T) {
	app, db, _ := setup(t)
	d := handlertest.Drop(t, db, "winter", 8)
	require.NoError(t, db.Create(&domain.Media{DropID: d.ID, URL: "https://cdn/x.jpg", Type: "photo", Approved: true}).Error)
	require.NoError(t, db.Create(&domain.Media{DropID: d.ID, URL: "https://cdn/y.jpg", Type: "photo"}).Error)

	resp := handlertest.Do(t, app, "GET", "/api/drops/winter", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	drop := handlertest.JSON(t, resp)["drop"].(map[string]interface{})
	assert.Len(t, drop["media"], 1)

	resp = handlertest.Do(t, app, "GET", "/api/drops/winter/gallery", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, handlertest.JSON(t, resp)["media"], 1)

	resp = handlertest.Do(t, app, "GET", "/api/drops/nowhere", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Drop not found", handlertest.JSON(t, resp)["error"])
}

func TestArchive_CompletedOnly(t *testing.T) {
	app, db, _ := setup(t)
	done := handlertest.Drop(t, db, "old-one", 5)
	require.NoError(t, db.Model(&done).Update("status", domain.DropCompleted).Error)
	handlertest.Drop(t, db, "upcoming", 5)

	resp := handlertest.Do(t, app, "GET", "/api/drops/archive", nil)
	drops := handlertest.JSON(t, resp)["drops"].([]interface{})
	require.Len(t, drops, 1)
	assert.Equal(t, "old-one", drops[0].(map[string]interface{})["slug"])
}

func TestAdminCRUD(t *testing.T) {
	app, _, _ := setup(t)
	form := map[string]interface{}{
		"title":      "  Harvest   Supper ",
		"slug":       "harvest-supper",
		"date_time":  time.Date(2026, 11, 20, 19, 0, 0, 0, time.UTC).Format(time.RFC3339),
		"seat_limit": 20,
	}

	resp := handlertest.Do(t, app, "POST", "/api/admin/drops", form)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := handlertest.Data(t, resp)
	assert.Equal(t, "Harvest Supper", created["title"])
	assert.Equal(t, domain.DropDraft, created["status"])
	id := created["id"].(string)

	resp = handlertest.Do(t, app, "POST", "/api/admin/drops", form)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = handlertest.Do(t, app, "PATCH", "/api/admin/drops/"+id+"/status", map[string]string{"status": "announced"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.DropAnnounced, handlertest.Data(t, resp)["status"])

	resp = handlertest.Do(t, app, "PATCH", "/api/admin/drops/"+id+"/status", map[string]string{"status": "maybe"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	form["seat_limit"] = 0
	resp = handlertest.Do(t, app, "PUT", "/api/admin/drops/"+id, form)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = handlertest.Do(t, app, "GET", "/api/admin/drops", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = handlertest.Do(t, app, "DELETE", "/api/admin/drops/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = handlertest.Do(t, app, "GET", "/api/admin/drops/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = handlertest.Do(t, app, "GET", "/api/admin/drops/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSendRecap_QueuesConfirmedGuests(t *testing.T) {
	app, db, q := setup(t)
	d := handlertest.Drop(t, db, "recap-night", 4)
	g := handlertest.Guest(t, db, "Alice Smith", "alice@x.com")
	require.NoError(t, db.Create(&domain.RSVP{UserID: g.ID, DropID: d.ID, Status: domain.RSVPConfirmed, ConfirmationCode: "C25-AAAA-BBBB"}).Error)

	resp := handlertest.Do(t, app, "POST", "/api/admin/drops/"+d.ID.String()+"/recap", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), handlertest.Data(t, resp)["queued"])
	ready, _ := q.Len()
	assert.Equal(t, 1, ready)
}
