package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"club25-backend/internal/auth"
	"club25-backend/internal/constants"
	pkgconstants "club25-backend/internal/pkg/constants"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedOrigins: []string{"https://club25.co/"}, AllowedSuffix: ".club25.dev", DevPassword: "open"}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	cases := []struct {
		origin string
		header string
		want   int
	}{
		{"", "", fiber.StatusOK},
		{"https://club25.co", "", fiber.StatusOK},
		{"https://preview.club25.dev", "", fiber.StatusOK},
		{"https://evil.example", "", fiber.StatusForbidden},
		{"https://evil.example", "open", fiber.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		if tc.header != "" {
			req.Header.Set("dev-password", tc.header)
		}
		resp := do(t, app, req)
		assert.Equal(t, tc.want, resp.StatusCode, tc.origin)
		if tc.want == fiber.StatusOK && tc.origin != "" {
			assert.Equal(t, tc.origin, resp.Header.Get("Access-Control-Allow-Origin"))
		}
	}

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	assert.Equal(t, fiber.StatusNoContent, do(t, app, req).StatusCode)
}

func TestTracing(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetTraceID(c)) })

	resp := do(t, app, httptest.NewRequest("GET", "/", nil))
	generated := resp.Header.Get(traceIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	inbound := uuid.NewString()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(traceIDHeader, inbound)
	assert.Equal(t, inbound, do(t, app, req).Header.Get(traceIDHeader))

	for _, bad := range []string{"abc", "web-1234abcd", "<script>alert(1)</script>"} {
		req = httptest.NewRequest("GET", "/", nil)
		req.Header.Set(traceIDHeader, bad)
		got := do(t, app, req).Header.Get(traceIDHeader)
		assert.NotEqual(t, bad, got)
		_, err := uuid.Parse(got)
		assert.NoError(t, err, bad)
	}
}

func TestAuthorizePermission(t *testing.T) {
	for _, tc := range []struct {
		role string
		want int
	}{
		{"", fiber.StatusUnauthorized},
		{pkgconstants.Staff, fiber.StatusForbidden},
		{pkgconstants.Admin, fiber.StatusOK},
	} {
		app := fiber.New()
		role := tc.role
		app.Use(func(c *fiber.Ctx) error {
			if role != "" {
				c.Locals("user", map[string]interface{}{"user_id": "u1", "role": role})
			}
			return c.Next()
		})
		app.Get("/", AuthorizePermission(constants.ManageDrops), func(c *fiber.Ctx) error { return c.SendString("ok") })
		resp := do(t, app, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, tc.want, resp.StatusCode, tc.role)
	}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": "u1", "role": pkgconstants.Admin})
		return c.Next()
	})
	app.Get("/", AuthorizePermission("no_such_permission"), func(c *fiber.Ctx) error { return nil })
	assert.Equal(t, fiber.StatusInternalServerError, do(t, app, httptest.NewRequest("GET", "/", nil)).StatusCode)
}

func TestRequireGuest(t *testing.T) {
	tokens := &auth.GuestTokens{Secret: "s3cret"}
	app := fiber.New()
	app.Get("/me", RequireGuest(tokens), func(c *fiber.Ctx) error {
		return c.SendString(GetGuest(c).Email)
	})

	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, httptest.NewRequest("GET", "/me", nil)).StatusCode)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer nope")
	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, req).StatusCode)

	raw, err := tokens.Issue(uuid.New(), "alice@example.com")
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	resp := do(t, app, req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSession_InviteCodeRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	app := fiber.New()
	app.Use(Session(rdb))
	app.Post("/remember", func(c *fiber.Ctx) error {
		sid, fresh := EnsureSession(c)
		SetInviteCode(c, "CLUB-TEST")
		if fresh {
			cookie := SessionCookieConfig(SessionConfig{})
			cookie.Value = "s:" + sid
			c.Cookie(&cookie)
		}
		return c.SendString(sid)
	})
	app.Get("/recall", func(c *fiber.Ctx) error { return c.SendString(GetInviteCode(c)) })

	resp := do(t, app, httptest.NewRequest("POST", "/remember", nil))
	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookieName {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	sid := cookie.Value[2:]
	n, err := rdb.Exists(context.Background(), SessionRedisPrefix+sid).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	req := httptest.NewRequest("GET", "/recall", nil)
	req.Header.Set("Cookie", SessionCookieName+"="+cookie.Value)
	resp = do(t, app, req)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "CLUB-TEST", string(body))
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusNotFound, "no such drop") })
	app.Get("/broken", func(c *fiber.Ctx) error { return errors.New("db exploded") })

	for path, want := range map[string]struct {
		status  int
		message string
	}{
		"/missing": {fiber.StatusNotFound, "no such drop"},
		"/broken":  {fiber.StatusInternalServerError, "Internal Server Error"},
	} {
		resp := do(t, app, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, want.status, resp.StatusCode, path)
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, want.message, body.Error.Message, path)
	}
}
