package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/maheshrc27/igpublisher/internal/api/middleware"
	"github.com/maheshrc27/igpublisher/internal/models"
)

func GetPrincipal(c *fiber.Ctx) models.Principal {
	p, _ := c.Locals(middleware.PrincipalKey).(models.Principal)
	return p
}

func paramID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, models.ErrNotFound
	}
	return id, nil
}
