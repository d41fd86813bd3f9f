package enrollmentController

import (
	"garuda/database"
	"garuda/middleware"
	"garuda/services/enrollment"
	enrollmentValidator "garuda/validators/enrollment"

	"github.com/gofiber/fiber/v2"
)

func duplicatesFilter(c *fiber.Ctx) enrollment.Filter {
	reqData := c.Locals("validatedDuplicates").(*enrollmentValidator.DuplicatesQuery)
	return enrollment.Filter{Email: reqData.Email, ProgramID: reqData.ProgramID}
}

// PreviewDuplicates shows the duplicate groups and which rows would be removed.
func PreviewDuplicates(c *fiber.Ctx) error {
	plan, err := enrollment.NewReconciler(database.Database.Db).Scan(c.UserContext(), duplicatesFilter(c))
	if err != nil {
		log.Errorf("scan duplicates: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Duplicate scan complete.", fiber.Map{
		"groups":     plan.Groups,
		"delete_ids": plan.DeleteIDs(),
		"keep_ids":   plan.KeeperIDs(),
	})
}

// ResolveDuplicates deletes the losing rows of every duplicate group. Failed
// deletions are reported with 207 and can be retried by calling again.
func ResolveDuplicates(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)

	plan, report, err := enrollment.NewReconciler(database.Database.Db).Run(c.UserContext(), duplicatesFilter(c))
	if err != nil {
		log.Errorf("resolve duplicates: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load enrollments!", nil)
	}

	log.WithField("admin_id", session.UserID).
		Infof("duplicate resolution: %d groups, %d deleted, %d failed", len(plan.Groups), len(report.Deleted), len(report.Failed))

	data := fiber.Map{
		"groups":  len(plan.Groups),
		"deleted": report.Deleted,
		"failed":  report.Failed,
		"kept":    report.Kept,
	}
	if len(report.Failed) > 0 {
		return middleware.JsonResponse(c, fiber.StatusMultiStatus, len(report.Deleted) > 0,
			"Some duplicate enrollments could not be deleted. Run the resolution again to retry.", data)
	}
	if plan.Empty() {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "No duplicate enrollments found.", data)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Duplicate enrollments resolved.", data)
}
