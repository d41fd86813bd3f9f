package programRoutes

import (
	programController "garuda/controllers/program"
	"garuda/middleware"
	"garuda/models"
	"garuda/validators"
	programValidator "garuda/validators/program"

	"github.com/gofiber/fiber/v2"
)

func SetupProgramRoutes(app *fiber.App) {
	id := validators.ParamID("id")

	// public catalog
	app.Get("/programs", programValidator.ProgramList(), programController.ListPrograms)
	app.Get("/programs/:slug", programController.GetProgram)

	app.Get("/classes/:id", middleware.JWTMiddleware, id, programController.GetClass)
	app.Get("/trainer/classes", middleware.JWTMiddleware, middleware.RequireRoles(models.RoleTrainer), programController.TrainerClasses)

	adminGroup := app.Group("/admin", middleware.JWTMiddleware, middleware.RequireRoles(models.RoleAdmin))

	adminGroup.Get("/programs", programValidator.ProgramList(), programController.AdminListPrograms)
	adminGroup.Post("/programs", programValidator.Program(), programController.CreateProgram)
	adminGroup.Put("/programs/:id", id, programValidator.Program(), programController.UpdateProgram)
	adminGroup.Delete("/programs/:id", id, programController.DeleteProgram)
	adminGroup.Post("/programs/:id/publish", id, programController.PublishProgram)
	adminGroup.Post("/programs/:id/archive", id, programController.ArchiveProgram)

	adminGroup.Post("/programs/:id/classes", id, programValidator.Class(), programController.CreateClass)
	adminGroup.Put("/classes/:id", id, programValidator.Class(), programController.UpdateClass)
	adminGroup.Post("/classes/:id/cancel", id, programController.CancelClass)
	adminGroup.Post("/classes/:id/trainers", id, programValidator.AssignTrainer(), programController.AssignTrainer)
	adminGroup.Delete("/classes/:id/trainers/:trainer_id", validators.ParamID("id", "trainer_id"), programController.UnassignTrainer)
}
