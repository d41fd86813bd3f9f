package learningRoutes

import (
	learningController "garuda/controllers/learning"
	"garuda/middleware"
	"garuda/models"
	"garuda/validators"
	learningValidator "garuda/validators/learning"

	"github.com/gofiber/fiber/v2"
)

func SetupLearningRoutes(app *fiber.App) {
	id := validators.ParamID("id")
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTrainer)

	classGroup := app.Group("/classes", middleware.JWTMiddleware)
	classGroup.Get("/:id/contents", id, learningController.ListClassContents)
	classGroup.Post("/:id/contents", staff, id, learningValidator.Content(), learningController.CreateContent)
	classGroup.Get("/:id/progress", id, learningController.ClassProgress)

	contentGroup := app.Group("/contents", middleware.JWTMiddleware)
	contentGroup.Get("/:id", id, learningController.GetContent)
	contentGroup.Put("/:id", staff, id, learningValidator.Content(), learningController.UpdateContent)
	contentGroup.Delete("/:id", staff, id, learningController.DeleteContent)
	contentGroup.Put("/:id/publish", staff, id, learningValidator.Publish(), learningController.PublishContent)
	contentGroup.Post("/:id/complete", id, learningController.MarkComplete)

	// quiz authoring
	contentGroup.Get("/:id/questions", staff, id, learningController.ListQuestions)
	contentGroup.Post("/:id/questions", staff, id, learningValidator.Question(), learningController.CreateQuestion)
	contentGroup.Get("/:id/submissions/pending", staff, id, learningController.PendingGrading)

	// quiz taking
	contentGroup.Get("/:id/quiz", id, learningController.GetQuiz)
	contentGroup.Post("/:id/quiz/submit", id, learningValidator.SubmitQuiz(), learningController.SubmitQuiz)
	contentGroup.Get("/:id/quiz/attempts", id, learningController.QuizAttempts)

	questionGroup := app.Group("/questions", middleware.JWTMiddleware, staff)
	questionGroup.Put("/:id", id, learningValidator.Question(), learningController.UpdateQuestion)
	questionGroup.Delete("/:id", id, learningController.DeleteQuestion)

	app.Put("/submissions/:id/grade", middleware.JWTMiddleware, staff, middleware.CheckPermissionMiddleware("quiz:grade"), id,
		learningValidator.Grade(), learningController.GradeSubmission)
}
