package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/velomica/accounthub/app/controllers"
	"github.com/velomica/accounthub/internal/pkg/env"
	"github.com/velomica/accounthub/internal/pkg/middleware"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Path(), "/webhooks/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get("/", loggedInMiddleware, controllers.HandleStart)
	group.Get("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Get("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Post("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Get("/activate", loggedInMiddleware, controllers.HandleAuthActivate)

	// Account
	group.Get("/user/profile", middleware.RequireAuth, controllers.HandleUserProfile)
	group.Post("/user/linked-accounts/:provider/unlink", middleware.RequireAuth, controllers.HandleOAuthUnlink)

	// Membership
	group.Get("/user/membership", middleware.RequireAuth, controllers.HandleUserMembership)
	group.Post("/user/membership/checkout", middleware.RequireAuth, controllers.HandleCheckout)
	group.Post("/user/membership/cancel", middleware.RequireAuth, controllers.HandleUnsubscribe)

	// Staff
	group.Get("/admin/billing/events", middleware.RequireStaff, controllers.HandleAdminWebhookEvents)

	// Miis
	group.Get("/user/miis", middleware.RequireAuth, controllers.HandleMiiList)
	group.Post("/user/miis", middleware.RequireAuth, controllers.HandleMiiUpload)
	group.Get("/user/miis/:slot/export", middleware.RequireAuth, controllers.HandleMiiExport)
	group.Post("/user/miis/:slot/delete", middleware.RequireAuth, controllers.HandleMiiDelete)
}
