package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// HandleStart renders the landing page.
func HandleStart(c *fiber.Ctx) error {
	return renderPage(c, "index", fiber.Map{
		"Title": "AccountHub",
	})
}

// HandleDocsAPI renders the API documentation entry page.
func HandleDocsAPI(c *fiber.Ctx) error {
	return renderPage(c, "docs", fiber.Map{
		"Title": "API Documentation",
	})
}
