package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const traceIDHeader = "X-Trace-Id"
const traceIDLocal = "trace_id"

// Tracing tags the request with a trace ID. A UUID X-Trace-Id from the web app is kept
// so client and server logs line up; anything else is replaced with a new one.
func Tracing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(traceIDHeader)
		if id, err := uuid.Parse(traceID); err == nil {
			traceID = id.String()
		} else {
			traceID = uuid.New().String()
		}
		c.Locals(traceIDLocal, traceID)
		c.Set(traceIDHeader, traceID)
		return c.Next()
	}
}

// GetTraceID returns the trace ID from context.
func GetTraceID(c *fiber.Ctx) string {
	if id, ok := c.Locals(traceIDLocal).(string); ok {
		return id
	}
	return ""
}

// Logger returns the global logger annotated with the request's trace id, method and path.
func Logger(c *fiber.Ctx) zerolog.Logger {
	return log.With().
		Str("trace_id", GetTraceID(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Logger()
}
