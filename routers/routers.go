package routers

import (
	"strings"

	"garuda/config"
	"garuda/middleware"
	authRoutes "garuda/routers/authRoutes"
	broadcastRoutes "garuda/routers/broadcastRoutes"
	certificateRoutes "garuda/routers/certificateRoutes"
	dashboardRoutes "garuda/routers/dashboardRoutes"
	enrollmentRoutes "garuda/routers/enrollmentRoutes"
	forumRoutes "garuda/routers/forumRoutes"
	learningRoutes "garuda/routers/learningRoutes"
	programRoutes "garuda/routers/programRoutes"
	referralRoutes "garuda/routers/referralRoutes"
	supportRoutes "garuda/routers/supportRoutes"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp builds the HTTP application with every route registered.
func NewApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(middleware.RequestID())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CorsOrigins,
		AllowMethods: "GET,POST,PUT,DELETE",                     // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization,X-Request-ID", // Allowed headers
	}))
	if !strings.EqualFold(cfg.LogLevel, "silent") {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${locals:requestId} ${ip} ${method} ${path} ${status} ${latency}\n",
		}))
	}
	app.Use(compress.New())
	app.Use(etag.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "OK", nil)
	})

	authRoutes.SetupAuthRoutes(app)
	programRoutes.SetupProgramRoutes(app)
	enrollmentRoutes.SetupEnrollmentRoutes(app)
	learningRoutes.SetupLearningRoutes(app)
	forumRoutes.SetupForumRoutes(app)
	certificateRoutes.SetupCertificateRoutes(app)
	referralRoutes.SetupReferralRoutes(app)
	broadcastRoutes.SetupBroadcastRoutes(app)
	supportRoutes.SetupSupportRoutes(app)
	dashboardRoutes.SetupDashboardRoutes(app)

	return app
}
