package authRoutes

import (
	authController "garuda/controllers/auth"
	"garuda/middleware"
	"garuda/models"
	"garuda/validators"
	authValidator "garuda/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", authValidator.Signup(), authController.Signup)
	authGroup.Post("/login", authValidator.Login(), authController.Login)
	authGroup.Get("/me", middleware.JWTMiddleware, authController.Me)
	authGroup.Put("/profile", middleware.JWTMiddleware, authValidator.UpdateProfile(), authController.UpdateProfile)
	authGroup.Put("/change/password", middleware.JWTMiddleware, authValidator.ChangePassword(), authController.ChangePassword)

	adminGroup := app.Group("/admin/users", middleware.JWTMiddleware, middleware.RequireRoles(models.RoleAdmin))
	adminGroup.Get("/", authValidator.UserList(), authController.AdminListUsers)
	adminGroup.Put("/:id/role", validators.ParamID("id"), authValidator.UpdateRole(), authController.AdminUpdateRole)
}
