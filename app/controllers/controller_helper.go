package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/velomica/accounthub/internal/pkg/usercontext"
)

func isLoggedIn(c *fiber.Ctx) bool {
	var fromProtected bool
	if protectedValue := c.Locals(usercontext.KeyFromProtected); protectedValue != nil {
		fromProtected = protectedValue.(bool)
	}

	return fromProtected
}

// csrfToken reads the token set by the CSRF middleware, empty outside the
// protected group.
func csrfToken(c *fiber.Ctx) string {
	if v, ok := c.Locals("csrf").(string); ok {
		return v
	}
	return ""
}

// renderPage wraps c.Render with the locals every layout expects.
func renderPage(c *fiber.Ctx, view string, data fiber.Map) error {
	userCtx := usercontext.GetUserContext(c)
	if data == nil {
		data = fiber.Map{}
	}
	data["IsLoggedIn"] = userCtx.IsLoggedIn
	data["Username"] = userCtx.Username
	data["IsStaff"] = usercontext.IsStaff(c)
	data["CSRFToken"] = csrfToken(c)
	data["Flash"] = flash.Get(c)
	return c.Render(view, data)
}
