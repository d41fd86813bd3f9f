package forumRoutes

import (
	forumController "garuda/controllers/forum"
	"garuda/middleware"
	"garuda/validators"
	forumValidator "garuda/validators/forum"

	"github.com/gofiber/fiber/v2"
)

func SetupForumRoutes(app *fiber.App) {
	id := validators.ParamID("id")

	app.Get("/classes/:id/threads", middleware.JWTMiddleware, id, forumController.ListThreads)
	app.Post("/classes/:id/threads", middleware.JWTMiddleware, id, forumValidator.Thread(), forumController.CreateThread)

	threadGroup := app.Group("/threads", middleware.JWTMiddleware)
	threadGroup.Get("/:id", id, forumController.GetThread)
	threadGroup.Post("/:id/replies", id, forumValidator.Reply(), forumController.Reply)
	threadGroup.Delete("/:id", id, forumController.DeleteThread)
	threadGroup.Put("/:id/moderate", id, forumValidator.Moderate(), forumController.Moderate)

	app.Delete("/replies/:id", middleware.JWTMiddleware, id, forumController.DeleteReply)
}
