package certificateController

import (
	"errors"
	"strings"
	"time"

	"garuda/database"
	"garuda/middleware"
	"garuda/models"
	"garuda/models/academy"
	"garuda/utils"
	certificateValidator "garuda/validators/certificate"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var errAlreadyHandled = errors.New("request already handled")

// RequestCertificate files a request for a completed enrollment.
func RequestCertificate(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCertificateRequest").(*certificateValidator.CertificateRequest)
	session := middleware.CurrentSession(c)
	db := database.Database.Db

	var e academy.Enrollment
	if err := db.Where("id = ? AND user_id = ?", reqData.EnrollmentID, session.UserID).First(&e).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}
	if e.Status != academy.EnrollmentCompleted {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Complete the program before requesting a certificate!", nil)
	}

	var issued int64
	db.Model(&academy.Certificate{}).Where("enrollment_id = ? AND is_revoked = ?", e.ID, false).Count(&issued)
	if issued > 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "A certificate was already issued for this enrollment!", nil)
	}

	var pending int64
	db.Model(&academy.CertificateRequest{}).Where("enrollment_id = ? AND status = ?", e.ID, academy.CertificateRequestPending).Count(&pending)
	if pending > 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "A request for this enrollment is already pending!", nil)
	}

	request := academy.CertificateRequest{
		UserID:       session.UserID,
		ProgramID:    e.ProgramID,
		EnrollmentID: e.ID,
		Status:       academy.CertificateRequestPending,
		RequestedAt:  time.Now(),
	}
	if err := db.Create(&request).Error; err != nil {
		log.Errorf("create certificate request: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to request certificate!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certificate requested successfully!", request)
}

// MyCertificates lists the caller's issued certificates and open requests.
func MyCertificates(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	db := database.Database.Db

	var certificates []academy.Certificate
	if err := db.Where("user_id = ?", session.UserID).Order("issued_at desc").Find(&certificates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	var requests []academy.CertificateRequest
	if err := db.Where("user_id = ?", session.UserID).Order("requested_at desc").Find(&requests).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", fiber.Map{
		"certificates": certificates,
		"requests":     requests,
	})
}

func ListRequests(c *fiber.Ctx) error {
	status := strings.ToUpper(c.Query("status", academy.CertificateRequestPending))
	page := utils.NewPagination(c.QueryInt("page", 1), c.QueryInt("limit", 10))

	db := database.Database.Db.Model(&academy.CertificateRequest{}).Where("status = ?", status)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch requests!", nil)
	}

	var requests []academy.CertificateRequest
	if err := db.Order("requested_at asc").Offset(page.Offset()).Limit(page.Limit).Find(&requests).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch requests!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Requests fetched successfully!", fiber.Map{
		"requests":   requests,
		"pagination": page.Meta(total),
	})
}

// Issue renders the template for the request and stores the certificate.
func Issue(tx *gorm.DB, request academy.CertificateRequest, user models.User, program academy.Program, now time.Time) (academy.Certificate, error) {
	var template academy.CertificateTemplate
	err := tx.Where("is_deleted = ?", false).Order("is_default desc, id asc").First(&template).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return academy.Certificate{}, err
	}

	number := utils.GenerateCertificateNumber(now)
	values := map[string]string{
		"name":    user.Name,
		"program": program.Title,
		"date":    now.Format("02 January 2006"),
		"number":  number,
	}

	cert := academy.Certificate{
		UserID:            user.ID,
		ProgramID:         program.ID,
		EnrollmentID:      request.EnrollmentID,
		CertificateNumber: number,
		RecipientName:     user.Name,
		RenderedTitle:     "Sertifikat Kelulusan",
		RenderedText:      utils.RenderPlaceholders("Diberikan kepada {{name}} atas kelulusan program {{program}}.", values),
		IssuedAt:          now,
	}
	if template.ID != 0 {
		cert.TemplateID = &template.ID
		cert.RenderedTitle = utils.RenderPlaceholders(template.TitleText, values)
		cert.RenderedText = utils.RenderPlaceholders(template.BodyText, values)
	}

	return cert, tx.Create(&cert).Error
}

func ApproveRequest(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	db := database.Database.Db

	var request academy.CertificateRequest
	if err := db.First(&request, c.Locals("id").(uint)).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Request not found!", nil)
	}

	var user models.User
	var program academy.Program
	if err := db.First(&user, request.UserID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}
	if err := db.First(&program, request.ProgramID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Program not found!", nil)
	}

	var cert academy.Certificate
	err := db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&academy.CertificateRequest{}).
			Where("id = ? AND status = ?", request.ID, academy.CertificateRequestPending).
			Updates(map[string]interface{}{
				"status":      academy.CertificateRequestApproved,
				"approved_at": now,
				"approved_by": session.UserID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAlreadyHandled
		}

		var err error
		cert, err = Issue(tx, request, user, program, now)
		return err
	})
	if errors.Is(err, errAlreadyHandled) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Request was already handled!", nil)
	}
	if err != nil {
		log.Errorf("approve certificate request %d: %v", request.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to issue certificate!", nil)
	}

	utils.SendCertificateIssuedEmail(user.Email, user.Name, program.Title, cert.CertificateNumber)
	log.WithField("certificate", cert.CertificateNumber).Infof("issued to user %d", user.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate issued successfully!", cert)
}

func RejectRequest(c *fiber.Ctx) error {
	reqData := c.Locals("validatedReject").(*certificateValidator.RejectRequest)
	db := database.Database.Db

	res := db.Model(&academy.CertificateRequest{}).
		Where("id = ? AND status = ?", c.Locals("id").(uint), academy.CertificateRequestPending).
		Updates(map[string]interface{}{
			"status":           academy.CertificateRequestRejected,
			"rejection_reason": reqData.Reason,
		})
	if res.Error != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reject request!", nil)
	}
	if res.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No pending request found!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Request rejected.", nil)
}

// Verify is the public certificate lookup.
func Verify(c *fiber.Ctx) error {
	number := strings.ToUpper(strings.TrimSpace(c.Params("number")))

	var cert academy.Certificate
	if err := database.Database.Db.Where("certificate_number = ?", number).First(&cert).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	var program academy.Program
	database.Database.Db.Select("id", "title").First(&program, cert.ProgramID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate found.", fiber.Map{
		"certificate_number": cert.CertificateNumber,
		"recipient_name":     cert.RecipientName,
		"program":            program.Title,
		"issued_at":          cert.IssuedAt,
		"valid":              !cert.IsRevoked,
	})
}
