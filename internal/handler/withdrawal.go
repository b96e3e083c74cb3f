package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/goldvault/backend/internal/middleware"
	"github.com/goldvault/backend/internal/service"
)

type RequestWithdrawalRequest struct {
	Amount        float64 `json:"amount"`
	WalletAddress string  `json:"wallet_address"`
	Password      string  `json:"password"`
}

func (h *Handler) RequestWithdrawal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}

	var req RequestWithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	withdrawal, err := h.withdrawalSvc.Request(c.Context(), userID, req.Amount, req.WalletAddress, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWithdrawalTooSmall), errors.Is(err, service.ErrMissingWalletAddress):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrInsufficientBalance):
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to request withdrawal",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"withdrawal": withdrawal,
	})
}

func (h *Handler) ListWithdrawals(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}

	withdrawals, err := h.withdrawalSvc.ListByUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list withdrawals",
		})
	}

	return c.JSON(fiber.Map{
		"withdrawals": withdrawals,
	})
}
