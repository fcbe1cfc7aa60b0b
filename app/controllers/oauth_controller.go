package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/velomica/accounthub/app/models"
	"github.com/velomica/accounthub/app/repository"
	"github.com/velomica/accounthub/internal/pkg/database"
	"github.com/velomica/accounthub/internal/pkg/session"
	"github.com/velomica/accounthub/internal/pkg/usercontext"
)

// HandleOAuthCallback completes the provider flow. A logged-in user gets the
// external identity linked to their account; otherwise the identity logs in
// (or creates) the matching local account.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	db := database.GetDB()
	linked := repository.GetGlobalRepositories().LinkedAccount

	existing, err := linked.GetByProviderUserID(u.Provider, u.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("db error: %v", err))
	}

	var appUser models.User

	switch {
	case existing != nil:
		// Known identity: log its owner in.
		if err := db.First(&appUser, existing.UserID).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("linked user not found")
		}
	default:
		// Fresh identity. Attach to an email-matched or newly created user.
		if u.Email != "" {
			_ = db.Where("email = ?", u.Email).First(&appUser).Error
		}
		if appUser.ID == 0 {
			// Create new user; ensure password is set to a random placeholder since validation requires it
			placeholder := fmt.Sprintf("oauth_%d", time.Now().UnixNano())
			hash, _ := models.HashPassword(placeholder)
			email := u.Email
			if email == "" {
				// Ensure unique, non-empty email to satisfy unique index semantics in MySQL
				email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
			}
			appUser = models.User{
				Name:      firstNonEmpty(u.Name, u.NickName, u.Email, "User"),
				Email:     email,
				Password:  hash,
				AvatarURL: u.AvatarURL,
				Status:    models.STATUS_ACTIVE,
			}
			if err := db.Create(&appUser).Error; err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("create user failed: %v", err))
			}
		}

		if err := linked.Upsert(&models.LinkedAccount{
			UserID:         appUser.ID,
			Provider:       u.Provider,
			ProviderUserID: u.UserID,
			Username:       firstNonEmpty(u.NickName, u.Name),
			Email:          u.Email,
			AvatarURL:      u.AvatarURL,
		}); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("link provider failed: %v", err))
		}
	}

	// Create app session
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session init failed")
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, appUser.ID)
	sess.Set(usercontext.KeyUsername, appUser.Name)
	sess.Set(usercontext.KeyAccessLevel, appUser.AccessLevel)
	if err := sess.Save(); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session save failed")
	}

	_ = db.Model(&appUser).UpdateColumn("last_login_at", time.Now()).Error

	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleOAuthUnlink removes an external identity from the logged-in account.
func HandleOAuthUnlink(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	provider := c.Params("provider")
	if provider == "" {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Unknown provider"}).Redirect("/user/profile")
	}

	if err := repository.GetGlobalRepositories().LinkedAccount.DeleteByUserAndProvider(userCtx.UserID, provider); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not unlink the account"}).Redirect("/user/profile")
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Account unlinked"}).Redirect("/user/profile")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
