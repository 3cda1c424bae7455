package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Alkira-Consulting/skylight-web/internal/controller"
)

// Register attaches all HTTP routes to the Fiber app.
func Register(app *fiber.App, ctrl controller.DashboardController) {
	app.Get("/login", ctrl.Login)
	app.Get("/auth/callback", ctrl.AuthCallback)
	app.Post("/logout", ctrl.Logout)
	app.Get("/dashboard", ctrl.Dashboard)
	app.Get("/dashboard/snapshot", ctrl.Snapshot)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
