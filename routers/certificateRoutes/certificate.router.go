package certificateRoutes

import (
	certificateController "garuda/controllers/certificate"
	"garuda/middleware"
	"garuda/models"
	"garuda/validators"
	certificateValidator "garuda/validators/certificate"

	"github.com/gofiber/fiber/v2"
)

func SetupCertificateRoutes(app *fiber.App) {
	id := validators.ParamID("id")

	app.Get("/certificates/verify/:number", certificateController.Verify)

	userGroup := app.Group("/user/certificates", middleware.JWTMiddleware)
	userGroup.Get("/", certificateController.MyCertificates)
	userGroup.Post("/request", certificateValidator.Request(), certificateController.RequestCertificate)

	adminGroup := app.Group("/admin/certificates", middleware.JWTMiddleware, middleware.RequireRoles(models.RoleAdmin))
	adminGroup.Get("/templates", certificateController.ListTemplates)
	adminGroup.Post("/templates", certificateValidator.Template(), certificateController.CreateTemplate)
	adminGroup.Put("/templates/:id", id, certificateValidator.Template(), certificateController.UpdateTemplate)
	adminGroup.Delete("/templates/:id", id, certificateController.DeleteTemplate)
	adminGroup.Get("/requests", certificateController.ListRequests)
	adminGroup.Post("/requests/:id/approve", id, certificateController.ApproveRequest)
	adminGroup.Post("/requests/:id/reject", id, certificateValidator.Reject(), certificateController.RejectRequest)
}
