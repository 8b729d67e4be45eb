package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/igpublisher/internal/service"
)

type CronHandler struct {
	processor service.PostProcessor
}

func NewCronHandler(processor service.PostProcessor) *CronHandler {
	return &CronHandler{processor: processor}
}

// ProcessDuePosts runs one processor batch synchronously and reports it.
func (h *CronHandler) ProcessDuePosts(c *fiber.Ctx) error {
	result, err := h.processor.Run(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}
