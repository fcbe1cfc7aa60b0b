package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/velomica/accounthub/app/controllers"
	"github.com/velomica/accounthub/app/repository"
	"github.com/velomica/accounthub/internal/pkg/database"
	"github.com/velomica/accounthub/internal/pkg/middleware"
	"github.com/velomica/accounthub/internal/pkg/oauth"
	"github.com/velomica/accounthub/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// repositories behind the controllers
	repository.InitializeFactory(database.GetDB())

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Initialize billing service (Stripe client, resolver, reconciler)
	controllers.InitializeBillingController()

	// Initialize Mii mirror (optional S3 backend)
	controllers.InitializeMiiController()

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func loggedInMiddleware(c *fiber.Ctx) error {
	// UserContextMiddleware already set all user context
	// This middleware just passes through - no additional logic needed
	return c.Next()
}
