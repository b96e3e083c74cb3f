package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/goldvault/backend/internal/config"
	"github.com/goldvault/backend/internal/service"
)

type Handler struct {
	cfg           *config.Config
	userService   *service.UserService
	balanceSvc    *service.BalanceService
	depositSvc    *service.DepositService
	withdrawalSvc *service.WithdrawalService
	referralSvc   *service.ReferralService
}

func New(
	cfg *config.Config,
	userService *service.UserService,
	balanceSvc *service.BalanceService,
	depositSvc *service.DepositService,
	withdrawalSvc *service.WithdrawalService,
	referralSvc *service.ReferralService,
) *Handler {
	return &Handler{
		cfg:           cfg,
		userService:   userService,
		balanceSvc:    balanceSvc,
		depositSvc:    depositSvc,
		withdrawalSvc: withdrawalSvc,
		referralSvc:   referralSvc,
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
