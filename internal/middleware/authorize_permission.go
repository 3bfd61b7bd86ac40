package middleware

import (
	"club25-backend/internal/auth"
	"club25-backend/internal/constants"
	"club25-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthorizePermission lets the request through when the session user's role is listed
// for permission in constants.PermissionRoles. Missing session is 401, a role outside the
// list is 403, and a permission nobody configured is 500.
func AuthorizePermission(permission string) fiber.Handler {
	if _, ok := constants.PermissionRoles[permission]; !ok {
		return func(c *fiber.Ctx) error {
			return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError, nil)
		}
	}
	return func(c *fiber.Ctx) error {
		user, err := auth.VerifyUser(GetUser(c))
		if err != nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		if user.Role == "" {
			return response.Error(c, "Authorization error", fiber.StatusInternalServerError, nil)
		}
		if !constants.AllowedRole(permission, user.Role) {
			logger := Logger(c)
			logger.Info().Str("user_id", user.UserID).Str("role", user.Role).Str("permission", permission).Msg("permission denied")
			return response.Forbidden(c, "User is Forbidden from performing this action")
		}
		return c.Next()
	}
}
