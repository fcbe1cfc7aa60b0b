package controllers

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/sujit-baniya/flash"

	"github.com/velomica/accounthub/app/models"
	"github.com/velomica/accounthub/app/repository"
	"github.com/velomica/accounthub/internal/pkg/billing"
	"github.com/velomica/accounthub/internal/pkg/database"
	"github.com/velomica/accounthub/internal/pkg/mail"
	"github.com/velomica/accounthub/internal/pkg/session"
	"github.com/velomica/accounthub/internal/pkg/usercontext"
)

var billingService *billing.Service

// InitializeBillingController builds the Stripe-backed billing service once
// at router install time.
func InitializeBillingController() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("component", "billing").Logger()
	svc, err := billing.NewServiceFromDB(database.GetDB(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("billing service setup failed")
	}
	billingService = svc
}

// HandleCheckout starts a hosted checkout for the selected plan and redirects
// the browser to the provider's payment page.
func HandleCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	priceID := c.FormValue("price_id")
	if priceID == "" {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "No plan selected"}).Redirect("/user/membership")
	}

	user, err := repository.GetGlobalRepositories().User.GetByID(userCtx.UserID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Account could not be loaded"}).Redirect("/user/membership")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	url, err := billingService.Checkout.Begin(ctx, userCtx.UserID, user.Email, priceID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrPolicyViolation):
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Staff accounts cannot purchase a membership"}).Redirect("/user/membership")
		case errors.Is(err, billing.ErrUnknownPlan):
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Unknown plan selected"}).Redirect("/user/membership")
		default:
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Checkout is currently unavailable, please try again later"}).Redirect("/user/membership")
		}
	}

	return c.Redirect(url, fiber.StatusSeeOther)
}

// HandleUnsubscribe cancels the active subscription and applies the
// unsubscribed state immediately.
func HandleUnsubscribe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	canceled, err := billingService.Unsubscribe.Unsubscribe(ctx, userCtx.UserID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Cancellation failed, please try again later"}).Redirect("/user/membership")
	}
	if !canceled {
		return flash.WithInfo(c, fiber.Map{"type": "info", "message": "No active membership to cancel"}).Redirect("/user/membership")
	}

	// Drop the cached tier so the next page load reflects the downgrade.
	_ = session.SetSessionValue(c, "tier_name", "")

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Your membership has been canceled"}).Redirect("/user/membership")
}

// HandleAdminWebhookEvents lists recent billing audit rows for operators.
func HandleAdminWebhookEvents(c *fiber.Ctx) error {
	var events []models.BillingWebhookEvent
	if err := database.GetDB().Order("id DESC").Limit(50).Find(&events).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "audit_unavailable"})
	}
	return c.JSON(events)
}

// HandleBillingWebhook receives provider events: verify, audit-record,
// reconcile, acknowledge. An invalid signature is never acknowledged.
func HandleBillingWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("Stripe-Signature")

	ev, err := billingService.Provider.VerifyWebhook(rawBody, signature)
	if err != nil {
		if errors.Is(err, billing.ErrSignatureInvalid) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if ev == nil {
		// Authentic but not a subscription lifecycle event.
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	outcome, procErr := billingService.HandleEvent(ctx, ev)
	if procErr != nil {
		if errors.Is(procErr, billing.ErrIdentityMismatch) {
			// No local account is bound to this customer; acknowledge so the
			// provider stops redelivering misdirected events.
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
		}
		// Not acknowledged; the provider redelivers and HandleEvent runs
		// the reconciler again for the same event id.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "reconcile_failed"})
	}

	switch outcome {
	case billing.OutcomeDuplicate:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	case billing.OutcomeStale:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "stale": true})
	case billing.OutcomeIgnored:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	default:
		go notifyMembershipChange(ev.CustomerID)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	}
}

// notifyMembershipChange mails the account owner after an applied
// transition. Best effort, runs off the request path.
func notifyMembershipChange(customerID string) {
	repos := repository.GetGlobalRepositories()
	profile, err := repos.Billing.GetProfileByCustomerID(customerID)
	if err != nil {
		return
	}
	user, err := repos.User.GetByID(profile.UserID)
	if err != nil {
		return
	}
	_ = mail.SendSubscriptionNotice(user.Email, user.Name, profile.TierName, profile.Subscribed())
}
