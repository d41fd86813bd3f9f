package enrollmentController

import (
	"errors"
	"strings"
	"time"

	"garuda/database"
	"garuda/middleware"
	"garuda/models"
	"garuda/models/academy"
	"garuda/utils"
	"garuda/utils/logger"
	enrollmentValidator "garuda/validators/enrollment"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var log = logger.Component("enrollment")

var activeStatuses = []academy.EnrollmentStatus{
	academy.EnrollmentPending,
	academy.EnrollmentApproved,
	academy.EnrollmentCompleted,
}

// Enroll registers the caller for a published program, optionally into one of its classes.
func Enroll(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	reqData := c.Locals("validatedEnroll").(*enrollmentValidator.EnrollRequest)
	programID := c.Locals("id").(uint)
	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", session.UserID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	var program academy.Program
	if err := db.Where("id = ? AND status = ? AND is_deleted = ?", programID, academy.ProgramPublished, false).
		First(&program).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Program not found or not open for enrollment!", nil)
	}

	var enrollment academy.Enrollment
	err := db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&academy.Enrollment{}).
			Where("(user_id = ? OR LOWER(email) = ?) AND program_id = ? AND status IN ?", user.ID, strings.ToLower(user.Email), program.ID, activeStatuses).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return errAlreadyEnrolled
		}

		if reqData.ClassID != nil {
			var class academy.Class
			if err := tx.Where("id = ? AND program_id = ? AND is_deleted = ?", *reqData.ClassID, program.ID, false).
				First(&class).Error; err != nil {
				return errClassUnavailable
			}
			if class.Status == academy.ClassCancelled || class.Status == academy.ClassCompleted {
				return errClassUnavailable
			}
			if class.Capacity > 0 {
				var taken int64
				if err := tx.Model(&academy.Enrollment{}).
					Where("class_id = ? AND status IN ?", class.ID, activeStatuses).
					Count(&taken).Error; err != nil {
					return err
				}
				if taken >= int64(class.Capacity) {
					return errClassFull
				}
			}
		}

		enrollment = academy.Enrollment{
			UserID:        user.ID,
			ProgramID:     program.ID,
			ClassID:       reqData.ClassID,
			Email:         strings.ToLower(user.Email),
			Status:        academy.EnrollmentPending,
			PaymentStatus: academy.PaymentUnpaid,
			Amount:        program.Price,
			ReferralCode:  reqData.ReferralCode,
		}
		if program.Price == 0 {
			enrollment.PaymentStatus = academy.PaymentPaid
		}
		if err := tx.Create(&enrollment).Error; err != nil {
			return err
		}

		return tx.Model(&models.Referral{}).
			Where("referred_user_id = ? AND status = ?", user.ID, models.ReferralRegistered).
			Updates(map[string]interface{}{"status": models.ReferralEnrolled, "enrollment_id": enrollment.ID}).Error
	})

	switch {
	case errors.Is(err, errAlreadyEnrolled):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "You are already enrolled in this program!", nil)
	case errors.Is(err, errClassUnavailable):
		return middleware.ValidationErrorResponse(c, map[string]string{"class_id": "Class is not available for this program!"})
	case errors.Is(err, errClassFull):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Class is full!", nil)
	case err != nil:
		log.Errorf("enroll user %d in program %d: %v", user.ID, program.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll!", nil)
	}

	utils.SendEnrollmentReceivedEmail(user.Email, user.Name, program.Title)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrollment submitted successfully!", enrollment)
}

var (
	errAlreadyEnrolled  = errors.New("already enrolled")
	errClassUnavailable = errors.New("class unavailable")
	errClassFull        = errors.New("class full")
)

type enrollmentView struct {
	academy.Enrollment
	ProgramTitle string `json:"program_title"`
	ProgramSlug  string `json:"program_slug"`
}

// MyEnrollments lists the caller's enrollments with program titles.
func MyEnrollments(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)

	var enrollments []academy.Enrollment
	if err := database.Database.Db.Where("user_id = ?", session.UserID).
		Order("created_at desc").Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	views, err := withPrograms(database.Database.Db, enrollments)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", views)
}

func withPrograms(db *gorm.DB, enrollments []academy.Enrollment) ([]enrollmentView, error) {
	ids := make([]uint, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.ProgramID)
	}

	var programs []academy.Program
	if len(ids) > 0 {
		if err := db.Where("id IN ?", ids).Find(&programs).Error; err != nil {
			return nil, err
		}
	}
	byID := make(map[uint]academy.Program, len(programs))
	for _, p := range programs {
		byID[p.ID] = p
	}

	views := make([]enrollmentView, 0, len(enrollments))
	for _, e := range enrollments {
		p := byID[e.ProgramID]
		views = append(views, enrollmentView{Enrollment: e, ProgramTitle: p.Title, ProgramSlug: p.Slug})
	}
	return views, nil
}

// CancelEnrollment lets a participant withdraw a pending enrollment.
func CancelEnrollment(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	db := database.Database.Db

	var e academy.Enrollment
	if err := db.Where("id = ? AND user_id = ?", c.Locals("id").(uint), session.UserID).First(&e).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}
	if e.Status != academy.EnrollmentPending {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Only pending enrollments can be cancelled!", nil)
	}

	if err := db.Model(&e).Update("status", academy.EnrollmentCancelled).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to cancel enrollment!", nil)
	}
	e.Status = academy.EnrollmentCancelled

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment cancelled!", e)
}

// AdminListEnrollments filters enrollments by program, status, payment status and email.
func AdminListEnrollments(c *fiber.Ctx) error {
	reqData := c.Locals("validatedEnrollmentList").(*enrollmentValidator.EnrollmentListQuery)
	page := utils.NewPagination(reqData.Page, reqData.Limit)

	db := database.Database.Db.Model(&academy.Enrollment{})
	if reqData.ProgramID != 0 {
		db = db.Where("program_id = ?", reqData.ProgramID)
	}
	if reqData.Status != "" {
		db = db.Where("status = ?", reqData.Status)
	}
	if reqData.PaymentStatus != "" {
		db = db.Where("payment_status = ?", reqData.PaymentStatus)
	}
	if s := strings.TrimSpace(reqData.Search); s != "" {
		db = db.Where("LOWER(email) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	var enrollments []academy.Enrollment
	if err := db.Order("created_at desc").Offset(page.Offset()).Limit(page.Limit).Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	views, err := withPrograms(database.Database.Db, enrollments)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrollments": views,
		"pagination":  page.Meta(total),
	})
}

// allowedTransition lists the admin status changes allowed from each status.
var allowedTransition = map[academy.EnrollmentStatus][]academy.EnrollmentStatus{
	academy.EnrollmentPending:  {academy.EnrollmentApproved, academy.EnrollmentRejected},
	academy.EnrollmentApproved: {academy.EnrollmentCompleted, academy.EnrollmentRejected},
	academy.EnrollmentRejected: {academy.EnrollmentApproved},
}

func canTransition(from, to academy.EnrollmentStatus) bool {
	for _, s := range allowedTransition[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AdminUpdateStatus approves, rejects or completes an enrollment. Approval
// notifies the participant by email and WhatsApp.
func AdminUpdateStatus(c *fiber.Ctx) error {
	reqData := c.Locals("validatedStatus").(*enrollmentValidator.StatusRequest)
	db := database.Database.Db

	var e academy.Enrollment
	if err := db.First(&e, c.Locals("id").(uint)).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}

	to := academy.EnrollmentStatus(reqData.Status)
	if !canTransition(e.Status, to) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false,
			"Cannot change enrollment from "+string(e.Status)+" to "+string(to)+"!", nil)
	}

	now := time.Now()
	updates := map[string]interface{}{"status": to}
	if reqData.Notes != "" {
		updates["notes"] = reqData.Notes
	}
	switch to {
	case academy.EnrollmentApproved:
		updates["approved_at"] = now
	case academy.EnrollmentCompleted:
		updates["completed_at"] = now
	}

	if err := db.Model(&e).Updates(updates).Error; err != nil {
		log.Errorf("update enrollment %d status: %v", e.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update enrollment!", nil)
	}
	db.First(&e, e.ID)

	if to == academy.EnrollmentApproved {
		notifyApproved(db, e)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment updated successfully!", e)
}

func notifyApproved(db *gorm.DB, e academy.Enrollment) {
	var user models.User
	var program academy.Program
	if err := db.First(&user, e.UserID).Error; err != nil {
		log.Warnf("approval notice for enrollment %d: %v", e.ID, err)
		return
	}
	if err := db.First(&program, e.ProgramID).Error; err != nil {
		log.Warnf("approval notice for enrollment %d: %v", e.ID, err)
		return
	}

	utils.SendEnrollmentApprovedEmail(user.Email, user.Name, program.Title)
	if user.Mobile != "" {
		utils.SendWhatsAppAsync(user.Mobile,
			"Halo "+user.Name+", pendaftaran Anda untuk program "+program.Title+" telah disetujui. Selamat belajar!")
	}
}
