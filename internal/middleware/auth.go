package middleware

import (
	"strings"

	"club25-backend/internal/auth"
	"club25-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const (
	userLocal  = "user"
	guestLocal = "guest"
)

// RequireAuth ensures a back-office user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals(userLocal)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals("auth", user)
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// RequireGuest accepts a magic-link token as "Authorization: Bearer <token>".
func RequireGuest(tokens *auth.GuestTokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if raw == "" || raw == header {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		c.Locals(guestLocal, claims)
		return c.Next()
	}
}

// GetGuest returns the guest set by RequireGuest.
func GetGuest(c *fiber.Ctx) *auth.GuestClaims {
	g, _ := c.Locals(guestLocal).(*auth.GuestClaims)
	return g
}
