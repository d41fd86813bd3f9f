package middleware

import (
	"errors"

	"garuda/utils/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with an id, reusing the caller's header when present
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = utils.UUIDv4()
		}
		c.Set(RequestIDHeader, id)
		c.Locals("requestId", id)
		return c.Next()
	}
}

// ErrorHandler renders unhandled errors with the standard response envelope
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error!"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		logger.Component("http").WithFields(map[string]interface{}{
			"path":       c.Path(),
			"request_id": c.Locals("requestId"),
		}).WithError(err).Error("unhandled error")
	}

	return JsonResponse(c, code, false, message, nil)
}
