package referralRoutes

import (
	referralController "garuda/controllers/referral"
	"garuda/middleware"
	"garuda/models"

	"github.com/gofiber/fiber/v2"
)

func SetupReferralRoutes(app *fiber.App) {
	app.Get("/user/referrals", middleware.JWTMiddleware, referralController.MyReferrals)
	app.Get("/admin/referrals/leaderboard", middleware.JWTMiddleware, middleware.RequireRoles(models.RoleAdmin), referralController.Leaderboard)
}
