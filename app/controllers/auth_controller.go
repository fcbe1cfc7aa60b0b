package controllers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/velomica/accounthub/app/models"
	"github.com/velomica/accounthub/app/repository"
	"github.com/velomica/accounthub/internal/pkg/database"
	"github.com/velomica/accounthub/internal/pkg/env"
	"github.com/velomica/accounthub/internal/pkg/hcaptcha"
	"github.com/velomica/accounthub/internal/pkg/mail"
	"github.com/velomica/accounthub/internal/pkg/session"
	"github.com/velomica/accounthub/internal/pkg/usercontext"
)

func HandleAuthLogin(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		var user models.User
		fm := fiber.Map{
			"type": "error",
		}

		// notice: in production you should not inform the user
		// with detailed messages about login failures
		result := database.GetDB().Where("email = ?", c.FormValue("email")).First(&user)
		if result.Error != nil {
			fm["message"] = "There is a problem with the login process"

			return flash.WithError(c, fm).Redirect("/login")
		}

		if !models.CheckPasswordHash(c.FormValue("password"), user.Password) {
			fm["message"] = "There is a problem with the login process"

			return flash.WithError(c, fm).Redirect("/login")
		}

		if !user.IsActive() {
			fm["message"] = "Please activate your account first. Check your inbox."

			return flash.WithError(c, fm).Redirect("/login")
		}

		sess, err := session.GetSessionStore().Get(c)
		if err != nil {
			fm["message"] = fmt.Sprintf("something went wrong: %s", err)

			return flash.WithError(c, fm).Redirect("/login")
		}

		sess.Set(usercontext.AuthKey, true)
		sess.Set(usercontext.KeyUserID, user.ID)
		sess.Set(usercontext.KeyUsername, user.Name)
		sess.Set(usercontext.KeyAccessLevel, user.AccessLevel)

		if err := sess.Save(); err != nil {
			fm["message"] = fmt.Sprintf("something went wrong: %s", err)

			return flash.WithError(c, fm).Redirect("/login")
		}

		database.GetDB().Model(&user).Update("last_login_at", time.Now())

		fm = fiber.Map{
			"type":    "success",
			"message": "Welcome back!",
		}

		return flash.WithSuccess(c, fm).Redirect("/")
	}

	return renderPage(c, "auth/login", fiber.Map{
		"Title": "Login",
	})
}

func HandleAuthLogout(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = "logged out (no sess)"

		return flash.WithError(c, fm).Redirect("/login")
	}

	if err := sess.Destroy(); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/login")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "See you soon!",
	}

	c.Locals(usercontext.KeyFromProtected, false)

	return flash.WithSuccess(c, fm).Redirect("/login")
}

func HandleAuthRegister(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		// Verify hCaptcha token when configured
		if hcaptcha.Enabled() {
			valid, err := hcaptcha.Verify(c.FormValue("h-captcha-response"))
			if err != nil || !valid {
				errorMsg := "Captcha validation failed. Please try again."
				if err != nil && env.IsDev() {
					errorMsg = fmt.Sprintf("Captcha validation failed: %v", err)
				}

				fm := fiber.Map{
					"type":    "error",
					"message": errorMsg,
				}
				return flash.WithError(c, fm).Redirect("/register")
			}
		}

		user, err := models.CreateUser(c.FormValue("username"), c.FormValue("email"), c.FormValue("password"))
		if err != nil {
			fm := fiber.Map{
				"type":    "error",
				"message": fmt.Sprintf("something went wrong: %s", err),
			}

			return flash.WithError(c, fm).Redirect("/register")
		}

		if err := user.GenerateActivationToken(); err != nil {
			fm := fiber.Map{
				"type":    "error",
				"message": fmt.Sprintf("something went wrong: %s", err),
			}

			return flash.WithError(c, fm).Redirect("/register")
		}

		if err := database.GetDB().Create(&user).Error; err != nil {
			fm := fiber.Map{
				"type":    "error",
				"message": fmt.Sprintf("something went wrong: %s", err),
			}

			return flash.WithError(c, fm).Redirect("/register")
		}

		base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
		if base == "" {
			base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
		}
		go mail.SendActivationMail(user.Email, user.Name, user.ActivationToken, base)

		fm := fiber.Map{
			"type":    "success",
			"message": "Registered! Check your inbox for the activation link.",
		}

		return flash.WithSuccess(c, fm).Redirect("/login")
	}

	return renderPage(c, "auth/register", fiber.Map{
		"Title":           "Register",
		"HCaptchaSitekey": env.GetEnv("HCAPTCHA_SITEKEY", ""),
	})
}

// HandleAuthActivate flips an inactive account to active via the emailed token.
func HandleAuthActivate(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		fm := fiber.Map{
			"type":    "error",
			"message": "Missing activation token",
		}
		return flash.WithError(c, fm).Redirect("/login")
	}

	users := repository.GetGlobalFactory().GetUserRepository()
	user, err := users.GetByActivationToken(token)
	if err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": "Invalid or expired activation token",
		}
		return flash.WithError(c, fm).Redirect("/login")
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := users.Update(user); err != nil {
		fm := fiber.Map{
			"type":    "error",
			"message": fmt.Sprintf("something went wrong: %s", err),
		}
		return flash.WithError(c, fm).Redirect("/login")
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Account activated. You can log in now!",
	}
	return flash.WithSuccess(c, fm).Redirect("/login")
}
