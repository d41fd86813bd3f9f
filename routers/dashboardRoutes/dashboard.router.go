package dashboardRoutes

import (
	dashboardController "garuda/controllers/dashboard"
	"garuda/middleware"
	"garuda/models"

	"github.com/gofiber/fiber/v2"
)

func SetupDashboardRoutes(app *fiber.App) {
	app.Get("/admin/dashboard", middleware.JWTMiddleware, middleware.RequireRoles(models.RoleAdmin),
		middleware.CheckPermissionMiddleware("dashboard:view"), dashboardController.Dashboard)
}
