package enrollmentRoutes

import (
	enrollmentController "garuda/controllers/enrollment"
	"garuda/middleware"
	"garuda/models"
	"garuda/validators"
	enrollmentValidator "garuda/validators/enrollment"

	"github.com/gofiber/fiber/v2"
)

func SetupEnrollmentRoutes(app *fiber.App) {
	id := validators.ParamID("id")

	app.Post("/programs/:id/enroll", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware("enroll"), id,
		enrollmentValidator.Enroll(), enrollmentController.Enroll)
	app.Get("/user/enrollments", middleware.JWTMiddleware, enrollmentController.MyEnrollments)
	app.Post("/enrollments/:id/cancel", middleware.JWTMiddleware, id, enrollmentController.CancelEnrollment)
	app.Post("/enrollments/:id/checkout", middleware.JWTMiddleware, id, enrollmentController.Checkout)

	// called by Midtrans, authenticated by the notification signature
	app.Post("/payments/midtrans/notification", enrollmentController.MidtransNotification)

	adminGroup := app.Group("/admin/enrollments", middleware.JWTMiddleware, middleware.RequireRoles(models.RoleAdmin))
	adminGroup.Get("/", enrollmentValidator.EnrollmentList(), enrollmentController.AdminListEnrollments)
	adminGroup.Get("/duplicates", middleware.CheckPermissionMiddleware("enrollment:reconcile"),
		enrollmentValidator.DuplicatesPreview(), enrollmentController.PreviewDuplicates)
	adminGroup.Post("/duplicates/resolve", middleware.CheckPermissionMiddleware("enrollment:reconcile"),
		enrollmentValidator.DuplicatesResolve(), enrollmentController.ResolveDuplicates)
	adminGroup.Put("/:id/status", id, enrollmentValidator.Status(), enrollmentController.AdminUpdateStatus)
	adminGroup.Put("/:id/payment", id, enrollmentValidator.Payment(), enrollmentController.AdminUpdatePayment)
}
