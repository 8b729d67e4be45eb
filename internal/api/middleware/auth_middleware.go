package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/igpublisher/internal/models"
	"github.com/maheshrc27/igpublisher/pkg/utils"
)

const PrincipalKey = "principal"

type AuthMiddleware struct {
	verifier   *utils.TokenVerifier
	cookieName string
}

func NewAuthMiddleware(verifier *utils.TokenVerifier, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, cookieName: cookieName}
}

// AuthMiddleware accepts the identity provider token from the Authorization
// header or, for browser navigations such as the OAuth redirect, from the
// session cookie.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenString == "" && m.cookieName != "" {
			tokenString = c.Cookies(m.cookieName)
		}
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization token",
			})
		}

		claims, err := m.verifier.Verify(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(PrincipalKey, models.Principal{
			UserID: claims.Subject,
			OrgID:  claims.OrgID,
		})
		return c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
