package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/igpublisher/internal/service"
)

type AccountHandler struct {
	s service.AccountService
}

func NewAccountHandler(s service.AccountService) *AccountHandler {
	return &AccountHandler{s: s}
}

func (h *AccountHandler) ListSocialAccounts(c *fiber.Ctx) error {
	accounts, err := h.s.List(c.Context(), GetPrincipal(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *AccountHandler) GetSocialAccount(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	account, err := h.s.Get(c.Context(), GetPrincipal(c), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(account)
}

func (h *AccountHandler) DisconnectSocialAccount(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.s.Disconnect(c.Context(), GetPrincipal(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AccountHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.s.Delete(c.Context(), GetPrincipal(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
