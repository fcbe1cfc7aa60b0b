package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/velomica/accounthub/app/repository"
	"github.com/velomica/accounthub/internal/pkg/entitlements"
	"github.com/velomica/accounthub/internal/pkg/usercontext"
)

// HandleAPIMe returns the authenticated account with its membership state.
func HandleAPIMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	user, err := repository.GetGlobalRepositories().User.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": "account not found",
		})
	}

	profile, err := billingService.Profile(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_error",
			"message": "membership state unavailable",
		})
	}

	tierName := entitlements.TierDisplayName(profile.TierName, profile.TierLevel)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":           user.ID,
		"username":     user.Name,
		"email":        user.Email,
		"access_level": user.AccessLevel,
		"is_staff":     user.IsStaff(),
		"membership": fiber.Map{
			"subscribed": profile.Subscribed(),
			"tier_name":  tierName,
			"tier_level": profile.TierLevel,
		},
	})
}
