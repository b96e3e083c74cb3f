package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/goldvault/backend/internal/middleware"
	"github.com/goldvault/backend/internal/service"
)

type SubmitDepositRequest struct {
	Amount float64 `json:"amount"`
	TxHash string  `json:"tx_hash"`
}

func (h *Handler) SubmitDeposit(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}

	var req SubmitDepositRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	user, err := h.userService.GetUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load user",
		})
	}

	deposit, err := h.depositSvc.Submit(c.Context(), user, req.Amount, req.TxHash)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDepositTooSmall), errors.Is(err, service.ErrMissingTxHash):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to submit deposit",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"deposit": deposit,
	})
}

func (h *Handler) ListDeposits(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}

	deposits, err := h.depositSvc.ListByUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list deposits",
		})
	}

	return c.JSON(fiber.Map{
		"deposits": deposits,
	})
}
