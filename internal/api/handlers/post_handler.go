package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/maheshrc27/igpublisher/internal/models"
	"github.com/maheshrc27/igpublisher/internal/repository"
	"github.com/maheshrc27/igpublisher/internal/service"
	"github.com/maheshrc27/igpublisher/internal/transfer"
)

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(s service.PostService) *PostHandler {
	return &PostHandler{s: s}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var req transfer.PostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.NewValidationError("", "unable to parse request body")
	}

	post, err := h.s.Create(c.Context(), GetPrincipal(c), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	filter, err := postFilter(c)
	if err != nil {
		return err
	}

	posts, err := h.s.List(c.Context(), GetPrincipal(c), filter)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	post, err := h.s.Get(c.Context(), GetPrincipal(c), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var patch transfer.PostPatch
	if err := c.BodyParser(&patch); err != nil {
		return models.NewValidationError("", "unable to parse request body")
	}

	post, err := h.s.Update(c.Context(), GetPrincipal(c), id, &patch)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) CancelPost(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	post, err := h.s.Cancel(c.Context(), GetPrincipal(c), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.s.Delete(c.Context(), GetPrincipal(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func postFilter(c *fiber.Ctx) (repository.PostFilter, error) {
	var f repository.PostFilter

	if status := c.Query("status"); status != "" {
		f.Status = models.PostStatus(strings.ToUpper(status))
	}
	if account := c.Query("account_id"); account != "" {
		id, err := uuid.Parse(account)
		if err != nil {
			return f, models.NewValidationError("account_id", "must be a valid id")
		}
		f.AccountID = id
	}
	for _, q := range []struct {
		name string
		dst  *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, models.NewValidationError(q.name, "must be an RFC 3339 timestamp")
		}
		*q.dst = t
	}
	f.Limit = c.QueryInt("limit", 100)
	return f, nil
}
