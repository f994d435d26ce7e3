package middleware

import (
	"regexp"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

const requestIDKey = "request_id"

// inboundRequestIDRe bounds what a client may send as its own request ID.
var inboundRequestIDRe = regexp.MustCompile(`^[A-Za-z0-9-]{8,64}$`)

// NewRequestID returns a middleware that assigns every request an ID. A
// well-formed inbound X-Request-ID is kept; anything else is replaced.
func NewRequestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if !inboundRequestIDRe.MatchString(id) {
			id = uuid.NewString()
		}
		c.Locals(requestIDKey, id)
		c.Set(HeaderRequestID, id)
		return c.Next()
	}
}

// RequestID returns the ID assigned by NewRequestID, or "".
func RequestID(c fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}
