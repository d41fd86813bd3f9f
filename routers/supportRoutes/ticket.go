package supportRoutes

import (
	supportControllers "garuda/controllers/support"
	"garuda/middleware"
	"garuda/models"
	"garuda/validators"
	supportValidators "garuda/validators/support"

	"github.com/gofiber/fiber/v2"
)

func SetupSupportRoutes(app *fiber.App) {
	id := validators.ParamID("id")

	supportGroup := app.Group("/support", middleware.JWTMiddleware)
	supportGroup.Post("/ticket/create", middleware.CheckPermissionMiddleware("support:create"),
		supportValidators.CreateSupportTicket(), supportControllers.CreateSupportTicket)
	supportGroup.Get("/ticket/list", supportValidators.TicketList(), supportControllers.TicketList)
	supportGroup.Get("/ticket/:id", id, supportControllers.GetTicket)
	supportGroup.Post("/ticket/:id/reply", id, supportValidators.ReplyTicket(), supportControllers.ReplyTicket)
	supportGroup.Post("/ticket/:id/close", id, supportControllers.CloseTicket)

	adminGroup := app.Group("/admin/support", middleware.JWTMiddleware, middleware.RequireRoles(models.RoleAdmin))
	adminGroup.Get("/ticket/list", supportValidators.TicketList(), supportControllers.AdminTicketList)
	adminGroup.Get("/ticket/stats", supportControllers.TicketStats)
}
