package middleware

import (
	"errors"

	"club25-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders errors that escape a handler in the standard envelope. Fiber
// errors keep their status and message; anything else is a logged 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return response.Error(c, fe.Message, fe.Code, nil)
	}
	logger := Logger(c)
	logger.Error().Err(err).Msg("unhandled error")
	if fe != nil {
		return response.Error(c, fe.Message, fe.Code, nil)
	}
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}
