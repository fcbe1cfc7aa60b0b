package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/velomica/accounthub/app/repository"
	"github.com/velomica/accounthub/internal/pkg/billing"
	"github.com/velomica/accounthub/internal/pkg/entitlements"
	"github.com/velomica/accounthub/internal/pkg/env"
	"github.com/velomica/accounthub/internal/pkg/usercontext"
)

// HandleUserProfile shows the account page with linked identities.
func HandleUserProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	discord, _ := repos.LinkedAccount.GetByUserAndProvider(userCtx.UserID, "discord")

	return renderPage(c, "user/profile", fiber.Map{
		"Title":       "Profile",
		"User":        user,
		"Discord":     discord,
		"AccessLevel": user.AccessLevel,
	})
}

// HandleUserMembership shows the membership state and the available plans.
func HandleUserMembership(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	profile, err := billingService.Profile(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("membership state unavailable")
	}

	// Plans offered for purchase, configured as a price id list.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var plans []billing.Plan
	for _, id := range strings.Split(env.GetEnv("STRIPE_PRICE_IDS", ""), ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if plan, err := billingService.Provider.LookupPlan(ctx, id); err == nil {
			plans = append(plans, *plan)
		}
	}

	return renderPage(c, "user/membership", fiber.Map{
		"Title":      "Membership",
		"Profile":    profile,
		"Subscribed": profile.Subscribed(),
		"IsStaffMbr": entitlements.IsStaff(userCtx.AccessLevel),
		"Plans":      plans,
		"Checkout":   c.Query("checkout"),
	})
}
