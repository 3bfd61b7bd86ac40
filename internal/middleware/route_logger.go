package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// RouteLogger writes one line per request with status and duration. Health polling
// and the live socket are logged at debug.
func RouteLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		logger := Logger(c)
		var ev *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = logger.Error()
		case status >= fiber.StatusBadRequest:
			ev = logger.Warn()
		case quietPath(c.Path()):
			ev = logger.Debug()
		default:
			ev = logger.Info()
		}
		ev.Int("status", status).Int64("ms", time.Since(start).Milliseconds()).Msg("request")
		return err
	}
}

func quietPath(path string) bool {
	return path == "/" || strings.HasPrefix(path, "/health") || strings.HasSuffix(path, "/live")
}
