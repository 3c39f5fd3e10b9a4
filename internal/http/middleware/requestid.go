package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request ID on both request and response.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is the Fiber locals key downstream handlers read.
	RequestIDLocalKey = "request_id"
)

// RequestID attaches an ID to every request: the incoming X-Request-ID if the
// client sent one, otherwise a fresh UUID. The ID is stored in context locals
// and echoed back on the response header so log lines and error payloads can
// be correlated with a specific call.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}
