package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

const CronSecretHeader = "X-Cron-Secret"

// CronSecret guards the cron trigger endpoints with a shared secret sent in
// X-Cron-Secret or as a bearer token.
func CronSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get(CronSecretHeader)
		if provided == "" {
			provided = bearerToken(c.Get(fiber.HeaderAuthorization))
		}

		if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid cron secret",
			})
		}
		return c.Next()
	}
}
