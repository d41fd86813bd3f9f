package broadcastRoutes

import (
	broadcastController "garuda/controllers/broadcast"
	"garuda/middleware"
	"garuda/models"
	"garuda/validators"
	broadcastValidator "garuda/validators/broadcast"

	"github.com/gofiber/fiber/v2"
)

func SetupBroadcastRoutes(app *fiber.App) {
	id := validators.ParamID("id")

	adminGroup := app.Group("/admin/broadcasts", middleware.JWTMiddleware, middleware.RequireRoles(models.RoleAdmin),
		middleware.CheckPermissionMiddleware("broadcast:send"))
	adminGroup.Get("/", broadcastValidator.BroadcastList(), broadcastController.ListBroadcasts)
	adminGroup.Post("/", broadcastValidator.Broadcast(), broadcastController.CreateBroadcast)
	adminGroup.Get("/:id", id, broadcastController.GetBroadcast)
	adminGroup.Put("/:id", id, broadcastValidator.Broadcast(), broadcastController.UpdateBroadcast)
	adminGroup.Post("/:id/cancel", id, broadcastController.CancelBroadcast)
	adminGroup.Post("/:id/send", id, broadcastController.SendBroadcast)
}
