package handlers

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/igpublisher/internal/models"
	"github.com/maheshrc27/igpublisher/internal/service"
)

type PlatformHandler struct {
	ps          service.PlatformService
	frontendURL string
}

func NewPlatformHandler(ps service.PlatformService, frontendURL string) *PlatformHandler {
	return &PlatformHandler{
		ps:          ps,
		frontendURL: frontendURL,
	}
}

func (h *PlatformHandler) AddSocialAccount(c *fiber.Ctx) error {
	authURL, err := h.ps.GetAuthURL(c.Context(), GetPrincipal(c), c.Params("platform"))
	if err != nil {
		return err
	}
	return c.Redirect(authURL, fiber.StatusTemporaryRedirect)
}

// CallbackHandler finishes the OAuth flow and sends the browser back to the
// dashboard with either connected=<platform> or error=<reason>.
func (h *PlatformHandler) CallbackHandler(c *fiber.Ctx) error {
	platform := c.Params("platform")
	if platform != models.PlatformInstagram {
		return h.redirect(c, "error", "unsupported_platform")
	}
	if reason := c.Query("error"); reason != "" {
		return h.redirect(c, "error", reason)
	}

	_, err := h.ps.InstagramCallback(c.Context(), c.Query("code"), c.Query("state"))
	switch {
	case err == nil:
		return h.redirect(c, "connected", platform)
	case errors.Is(err, models.ErrStateExpired):
		return h.redirect(c, "error", "state_expired")
	case errors.Is(err, models.ErrStateUsed), errors.Is(err, models.ErrStateNotFound):
		return h.redirect(c, "error", "invalid_state")
	default:
		return h.redirect(c, "error", "connect_failed")
	}
}

func (h *PlatformHandler) redirect(c *fiber.Ctx, key, value string) error {
	redirectURL := fmt.Sprintf("%s/dashboard/accounts?%s=%s", h.frontendURL, key, url.QueryEscape(value))
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}
