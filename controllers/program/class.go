package programController

import (
	"errors"

	"garuda/database"
	"garuda/middleware"
	"garuda/models"
	"garuda/models/academy"
	"garuda/services/access"
	programValidator "garuda/validators/program"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func findClass(db *gorm.DB, id uint) (academy.Class, error) {
	var class academy.Class
	err := db.Where("id = ? AND is_deleted = ?", id, false).First(&class).Error
	return class, err
}

func CreateClass(c *fiber.Ctx) error {
	reqData := c.Locals("validatedClass").(*programValidator.ClassRequest)
	db := database.Database.Db

	program, err := findProgram(db, c.Locals("id").(uint))
	if err != nil {
		return notFoundOr500(c, err, "Program")
	}

	class := academy.Class{
		ProgramID:    program.ID,
		Name:         reqData.Name,
		StartDate:    reqData.Start,
		EndDate:      reqData.End,
		ScheduleDays: reqData.ScheduleDays,
		StartTime:    reqData.StartTime,
		EndTime:      reqData.EndTime,
		Location:     reqData.Location,
		Mode:         reqData.Mode,
		Capacity:     reqData.Capacity,
		Status:       academy.ClassScheduled,
	}
	if err := db.Create(&class).Error; err != nil {
		log.Errorf("create class for program %d: %v", program.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create class!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Class created successfully!", class)
}

func UpdateClass(c *fiber.Ctx) error {
	reqData := c.Locals("validatedClass").(*programValidator.ClassRequest)
	db := database.Database.Db

	class, err := findClass(db, c.Locals("id").(uint))
	if err != nil {
		return notFoundOr500(c, err, "Class")
	}
	if class.Status == academy.ClassCancelled {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Cancelled classes cannot be edited!", nil)
	}

	if reqData.Capacity > 0 {
		enrolled, err := enrolledCount(db, class.ID)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update class!", nil)
		}
		if int64(reqData.Capacity) < enrolled {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"capacity": "capacity is below the number of enrolled participants!",
			})
		}
	}

	err = db.Model(&class).Updates(map[string]interface{}{
		"name":          reqData.Name,
		"start_date":    reqData.Start,
		"end_date":      reqData.End,
		"schedule_days": reqData.ScheduleDays,
		"start_time":    reqData.StartTime,
		"end_time":      reqData.EndTime,
		"location":      reqData.Location,
		"mode":          reqData.Mode,
		"capacity":      reqData.Capacity,
	}).Error
	if err != nil {
		log.Errorf("update class %d: %v", class.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update class!", nil)
	}
	db.First(&class, class.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Class updated successfully!", class)
}

func CancelClass(c *fiber.Ctx) error {
	db := database.Database.Db

	class, err := findClass(db, c.Locals("id").(uint))
	if err != nil {
		return notFoundOr500(c, err, "Class")
	}
	if class.Status == academy.ClassCompleted {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Completed classes cannot be cancelled!", nil)
	}

	if err := db.Model(&class).Update("status", academy.ClassCancelled).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to cancel class!", nil)
	}
	class.Status = academy.ClassCancelled

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Class cancelled!", class)
}

// enrolledCount counts active enrollments placed in the class.
func enrolledCount(db *gorm.DB, classID uint) (int64, error) {
	var n int64
	err := db.Model(&academy.Enrollment{}).
		Where("class_id = ? AND status IN ?", classID, []academy.EnrollmentStatus{
			academy.EnrollmentPending, academy.EnrollmentApproved, academy.EnrollmentCompleted,
		}).
		Count(&n).Error
	return n, err
}

type trainerView struct {
	TrainerID uint   `json:"trainer_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// GetClass returns the class with its trainers and enrolled count.
func GetClass(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	db := database.Database.Db
	classID := c.Locals("id").(uint)

	ok, err := access.CanViewClass(c.UserContext(), db, access.Actor{UserID: session.UserID, Role: session.Role}, classID)
	if errors.Is(err, access.ErrClassNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Class not found!", nil)
	}
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch class!", nil)
	}
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this class!", nil)
	}

	class, err := findClass(db, classID)
	if err != nil {
		return notFoundOr500(c, err, "Class")
	}

	var trainers []trainerView
	if err := db.Table("trainer_assignments").
		Select("trainer_assignments.trainer_id, users.name, users.email, trainer_assignments.role").
		Joins("JOIN users ON users.id = trainer_assignments.trainer_id").
		Where("trainer_assignments.class_id = ? AND trainer_assignments.deleted_at IS NULL", class.ID).
		Scan(&trainers).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch trainers!", nil)
	}

	enrolled, err := enrolledCount(db, class.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch class!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Class fetched successfully!", fiber.Map{
		"class":          class,
		"trainers":       trainers,
		"enrolled_count": enrolled,
	})
}

func AssignTrainer(c *fiber.Ctx) error {
	reqData := c.Locals("validatedAssignment").(*programValidator.AssignTrainerRequest)
	db := database.Database.Db

	class, err := findClass(db, c.Locals("id").(uint))
	if err != nil {
		return notFoundOr500(c, err, "Class")
	}

	var trainer models.User
	if err := db.Where("id = ? AND is_deleted = ?", reqData.TrainerID, false).First(&trainer).Error; err != nil {
		return notFoundOr500(c, err, "Trainer")
	}
	if trainer.Role != models.RoleTrainer {
		return middleware.ValidationErrorResponse(c, map[string]string{"trainer_id": "User is not a trainer!"})
	}

	if ok, _ := access.IsClassTrainer(c.UserContext(), db, trainer.ID, class.ID); ok {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Trainer is already assigned to this class!", nil)
	}

	role := reqData.Role
	if role == "" {
		role = "LEAD"
	}
	assignment := academy.TrainerAssignment{ClassID: class.ID, TrainerID: trainer.ID, Role: role}
	if err := db.Create(&assignment).Error; err != nil {
		log.Errorf("assign trainer %d to class %d: %v", trainer.ID, class.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to assign trainer!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Trainer assigned successfully!", assignment)
}

func UnassignTrainer(c *fiber.Ctx) error {
	db := database.Database.Db
	classID := c.Locals("id").(uint)
	trainerID := c.Locals("trainer_id").(uint)

	res := db.Unscoped().Where("class_id = ? AND trainer_id = ?", classID, trainerID).Delete(&academy.TrainerAssignment{})
	if res.Error != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to unassign trainer!", nil)
	}
	if res.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Assignment not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Trainer unassigned successfully!", nil)
}

// TrainerClasses lists the classes the caller is assigned to.
func TrainerClasses(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)

	var classes []academy.Class
	err := database.Database.Db.
		Joins("JOIN trainer_assignments ON trainer_assignments.class_id = classes.id AND trainer_assignments.deleted_at IS NULL").
		Where("trainer_assignments.trainer_id = ? AND classes.is_deleted = ?", session.UserID, false).
		Order("classes.start_date").
		Find(&classes).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch classes!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Classes fetched successfully!", classes)
}
