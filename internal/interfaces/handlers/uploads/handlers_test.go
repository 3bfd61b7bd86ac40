package uploads

import (
	"context"
	"errors"
	"strings"
	"testing"

	uploadsvc "club25-backend/internal/application/uploads"
	"club25-backend/internal/interfaces/handlers/handlertest"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStorage struct {
	err error
}

func (s *stubStorage) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://storage.test/" + bucket + "/" + path + "?token=t", nil
}

func setup(t *testing.T, storage *stubStorage) (*fiber.App, string) {
	db := handlertest.DB(t)
	drop := handlertest.Drop(t, db, "media-night", 10)
	h := &Handlers{Service: &uploadsvc.Service{DB: db, Client: storage, SupabaseURL: "https://proj.supabase.co"}}
	app := fiber.New()
	handlertest.AsAdmin(app)
	app.Post("/drops/:id/media/upload-url", h.UploadURL)
	app.Post("/drops/:id/media", h.Register)
	app.Get("/drops/:id/media", h.List)
	app.Patch("/media/:mediaId", h.Approve)
	app.Delete("/media/:mediaId", h.Delete)
	return app, drop.ID.String()
}

func TestUploadURL(t *testing.T) {
	app, dropID := setup(t, &stubStorage{})

	resp := handlertest.Do(t, app, "POST", "/drops/"+dropID+"/media/upload-url", map[string]string{"file_name": "table shot.jpg"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := handlertest.Data(t, resp)
	assert.True(t, strings.HasPrefix(data["path"].(string), dropID+"/"))
	assert.True(t, strings.HasSuffix(data["path"].(string), "-table-shot.jpg"))
	assert.Contains(t, data["publicUrl"], "/storage/v1/object/public/drop-media/")

	resp = handlertest.Do(t, app, "POST", "/drops/"+dropID+"/media/upload-url", map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "file_name is required", handlertest.ErrorMessage(t, resp))

	resp = handlertest.Do(t, app, "POST", "/drops/"+uuid.New().String()+"/media/upload-url", map[string]string{"file_name": "a.jpg"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUploadURL_StorageFailure(t *testing.T) {
	app, dropID := setup(t, &stubStorage{err: errors.New("supabase down")})

	resp := handlertest.Do(t, app, "POST", "/drops/"+dropID+"/media/upload-url", map[string]string{"file_name": "a.jpg"})
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to generate upload URL", handlertest.ErrorMessage(t, resp))
}

func TestRegisterApproveDelete(t *testing.T) {
	app, dropID := setup(t, &stubStorage{})

	resp := handlertest.Do(t, app, "POST", "/drops/"+dropID+"/media", map[string]interface{}{
		"url": "https://cdn.test/a.jpg", "caption": "first course", "meta": map[string]int{"width": 1200},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	m := handlertest.Data(t, resp)
	assert.Equal(t, "photo", m["type"])
	assert.Equal(t, false, m["approved"])
	id := m["id"].(string)

	resp = handlertest.Do(t, app, "POST", "/drops/"+dropID+"/media", map[string]string{"url": "https://cdn.test/a.gif", "type": "gif"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = handlertest.Do(t, app, "PATCH", "/media/"+id, map[string]bool{"approved": true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, handlertest.Data(t, resp)["approved"])

	resp = handlertest.Do(t, app, "GET", "/drops/"+dropID+"/media", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, handlertest.JSON(t, resp)["data"], 1)

	resp = handlertest.Do(t, app, "DELETE", "/media/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = handlertest.Do(t, app, "PATCH", "/media/"+id, map[string]bool{"approved": false})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
