package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/goldvault/backend/internal/model"
	"github.com/goldvault/backend/internal/repository"
	"github.com/goldvault/backend/internal/service"
)

type AdminHandler struct {
	adminSvc *service.AdminService
}

func NewAdminHandler(adminSvc *service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

func (h *AdminHandler) GetDashboard(c *fiber.Ctx) error {
	stats, err := h.adminSvc.GetDashboardStats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load dashboard",
		})
	}
	return c.JSON(stats)
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	users, total, err := h.adminSvc.ListUsers(c.Context(), limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list users",
		})
	}

	return c.JSON(fiber.Map{
		"users": users,
		"total": total,
	})
}

func (h *AdminHandler) ListPendingDeposits(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	deposits, err := h.adminSvc.ListPendingDeposits(c.Context(), limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list deposits",
		})
	}

	return c.JSON(fiber.Map{
		"deposits": deposits,
	})
}

func (h *AdminHandler) ApproveDeposit(c *fiber.Ctx) error {
	depositID, err := uuid.Parse(c.Params("deposit_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid deposit id",
		})
	}

	deposit, credits, err := h.adminSvc.ApproveDeposit(c.Context(), depositID)
	if err != nil {
		return depositActionError(c, err)
	}

	return c.JSON(fiber.Map{
		"deposit": deposit,
		"credits": credits,
	})
}

func (h *AdminHandler) RejectDeposit(c *fiber.Ctx) error {
	depositID, err := uuid.Parse(c.Params("deposit_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid deposit id",
		})
	}

	deposit, err := h.adminSvc.RejectDeposit(c.Context(), depositID)
	if err != nil {
		return depositActionError(c, err)
	}

	return c.JSON(fiber.Map{
		"deposit": deposit,
	})
}

func (h *AdminHandler) ListWithdrawals(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	status := model.WithdrawalStatus(c.Query("status", string(model.WithdrawalStatusPending)))

	withdrawals, err := h.adminSvc.ListWithdrawalsByStatus(c.Context(), status, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list withdrawals",
		})
	}

	return c.JSON(fiber.Map{
		"withdrawals": withdrawals,
	})
}

func (h *AdminHandler) MarkWithdrawalProcessing(c *fiber.Ctx) error {
	withdrawalID, err := uuid.Parse(c.Params("withdrawal_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid withdrawal id",
		})
	}

	withdrawal, err := h.adminSvc.MarkWithdrawalProcessing(c.Context(), withdrawalID)
	if err != nil {
		return withdrawalActionError(c, err)
	}

	return c.JSON(fiber.Map{
		"withdrawal": withdrawal,
	})
}

func (h *AdminHandler) CompleteWithdrawal(c *fiber.Ctx) error {
	withdrawalID, err := uuid.Parse(c.Params("withdrawal_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid withdrawal id",
		})
	}

	withdrawal, err := h.adminSvc.CompleteWithdrawal(c.Context(), withdrawalID)
	if err != nil {
		return withdrawalActionError(c, err)
	}

	return c.JSON(fiber.Map{
		"withdrawal": withdrawal,
	})
}

func (h *AdminHandler) RejectWithdrawal(c *fiber.Ctx) error {
	withdrawalID, err := uuid.Parse(c.Params("withdrawal_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid withdrawal id",
		})
	}

	withdrawal, err := h.adminSvc.RejectWithdrawal(c.Context(), withdrawalID)
	if err != nil {
		return withdrawalActionError(c, err)
	}

	return c.JSON(fiber.Map{
		"withdrawal": withdrawal,
	})
}

func depositActionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrDepositNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrDepositNotPending):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "concurrent modification, retry"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "deposit action failed",
	})
}

func withdrawalActionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrWithdrawalNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrWithdrawalResolved):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "concurrent modification, retry"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "withdrawal action failed",
	})
}
