// Package handlertest holds fixtures shared by the handler tests.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"club25-backend/internal/domain"
	"club25-backend/internal/infrastructure/database"
	"club25-backend/internal/pkg/constants"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// DB opens a migrated in-memory database.
func DB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

// Redis starts a miniredis server and returns a client for it.
func Redis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return rdb, mr
}

// Drop inserts an announced drop four days out.
func Drop(t *testing.T, db *gorm.DB, slug string, seats int) domain.Drop {
	t.Helper()
	d := domain.Drop{
		Slug:      slug,
		Title:     "Drop " + slug,
		DateTime:  time.Now().UTC().Add(96 * time.Hour),
		SeatLimit: seats,
		Status:    domain.DropAnnounced,
	}
	require.NoError(t, db.Create(&d).Error)
	return d
}

// Invite inserts an active admin invite code.
func Invite(t *testing.T, db *gorm.DB, code string, max, current int) domain.InviteCode {
	t.Helper()
	i := domain.InviteCode{Code: code, MaxUses: max, CurrentUses: current, Active: true, Source: domain.InviteSourceAdmin}
	require.NoError(t, db.Create(&i).Error)
	return i
}

// Guest inserts a profile.
func Guest(t *testing.T, db *gorm.DB, name, email string) domain.Profile {
	t.Helper()
	p := domain.Profile{ID: uuid.New(), Name: name, Email: email}
	require.NoError(t, db.Create(&p).Error)
	return p
}

// AsRole installs a fake session user with role ahead of the routes registered after it.
func AsRole(app *fiber.App, role string) {
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{
			"user_id":  uuid.New().String(),
			"fullname": "Test " + role,
			"email":    role + "@club25.test",
			"role":     role,
		})
		return c.Next()
	})
}

// AsAdmin is AsRole with the admin role.
func AsAdmin(app *fiber.App) { AsRole(app, constants.Admin) }

// Do sends a JSON request (body may be nil) and returns the response.
func Do(t *testing.T, app *fiber.App, method, path string, body interface{}, headers ...string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// JSON decodes the response body into a generic map.
func JSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// Data returns the "data" object of a success envelope.
func Data(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := JSON(t, resp)
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", body)
	return data
}

// ErrorMessage returns error.message from an error envelope.
func ErrorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	body := JSON(t, resp)
	e, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "response has no error object: %v", body)
	msg, _ := e["message"].(string)
	return msg
}
