package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/goldvault/backend/internal/middleware"
)

func (h *Handler) GetReferralStats(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}

	stats, err := h.referralSvc.GetStats(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get referral stats",
		})
	}

	referrals, err := h.referralSvc.GetReferrals(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get referrals",
		})
	}

	return c.JSON(fiber.Map{
		"stats":     stats,
		"referrals": referrals,
	})
}

func (h *Handler) GetReferralLink(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}

	user, err := h.userService.GetUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load user",
		})
	}

	return c.JSON(fiber.Map{
		"link": h.referralSvc.GetReferralLink(h.cfg.Server.AppURL, user),
		"code": user.ReferralCode,
	})
}
