package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/igpublisher/internal/models"
	"github.com/maheshrc27/igpublisher/internal/service"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(s service.MediaService) *MediaHandler {
	return &MediaHandler{s: s}
}

func (h *MediaHandler) UploadMedia(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.NewValidationError("file", "a file is required")
	}
	if fileHeader.Size > service.MaxUploadSize {
		return models.NewValidationError("file", "file exceeds %d MB", service.MaxUploadSize>>20)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	asset, err := h.s.Upload(c.Context(), GetPrincipal(c), fileHeader.Filename, data)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(asset)
}

func (h *MediaHandler) ListMedia(c *fiber.Ctx) error {
	assets, err := h.s.List(c.Context(), GetPrincipal(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(assets)
}

func (h *MediaHandler) RemoveMedia(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.s.Delete(c.Context(), GetPrincipal(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
