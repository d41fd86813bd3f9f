package enrollmentController

import (
	"errors"

	"garuda/config"
	"garuda/database"
	"garuda/middleware"
	"garuda/models"
	"garuda/models/academy"
	"garuda/services/payment"
	enrollmentValidator "garuda/validators/enrollment"

	"github.com/gofiber/fiber/v2"
)

// NewGateway builds the payment gateway used by the handlers.
var NewGateway = func() *payment.Gateway {
	cfg := config.AppConfig
	return payment.NewGateway(database.Database.Db, cfg.MidtransServerKey, cfg.MidtransProduction)
}

// Checkout opens a Midtrans Snap transaction for the unpaid part of an enrollment.
func Checkout(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	db := database.Database.Db

	var e academy.Enrollment
	if err := db.Where("id = ? AND user_id = ?", c.Locals("id").(uint), session.UserID).First(&e).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}
	if !e.Status.Active() {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Enrollment is no longer active!", nil)
	}
	if e.PaymentStatus == academy.PaymentPaid {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Enrollment is already paid!", nil)
	}

	var user models.User
	var program academy.Program
	if err := db.First(&user, e.UserID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start checkout!", nil)
	}
	if err := db.First(&program, e.ProgramID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start checkout!", nil)
	}

	checkout, err := NewGateway().CreateCheckout(c.UserContext(), &e, program.Title,
		payment.Customer{Name: user.Name, Email: user.Email, Phone: user.Mobile})
	switch {
	case errors.Is(err, payment.ErrNotConfigured):
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Online payment is not available!", nil)
	case errors.Is(err, payment.ErrInvalidAmount):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Nothing left to pay!", nil)
	case err != nil:
		log.Errorf("checkout enrollment %d: %v", e.ID, err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to create payment!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Checkout created successfully!", checkout)
}

// MidtransNotification is the payment webhook. It answers 200 for notifications
// that were understood so Midtrans stops retrying.
func MidtransNotification(c *fiber.Ctx) error {
	var n payment.Notification
	if err := c.BodyParser(&n); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid notification!", nil)
	}

	e, err := NewGateway().ApplyNotification(c.UserContext(), n)
	switch {
	case errors.Is(err, payment.ErrNotConfigured):
		log.WithField("order_id", n.OrderID).Warn("notification received without a server key")
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Payment gateway is not configured!", nil)
	case errors.Is(err, payment.ErrInvalidSignature):
		log.WithField("order_id", n.OrderID).Warn("rejected notification with bad signature")
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Invalid signature!", nil)
	case errors.Is(err, payment.ErrUnknownOrder):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Unknown order!", nil)
	case err != nil:
		log.Errorf("apply notification %s: %v", n.OrderID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process notification!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Notification processed.", fiber.Map{
		"enrollment_id":  e.ID,
		"payment_status": e.PaymentStatus,
	})
}

// AdminUpdatePayment records an offline payment state.
func AdminUpdatePayment(c *fiber.Ctx) error {
	reqData := c.Locals("validatedPayment").(*enrollmentValidator.PaymentRequest)
	db := database.Database.Db

	var e academy.Enrollment
	if err := db.First(&e, c.Locals("id").(uint)).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}
	if reqData.PaidAmount != nil && *reqData.PaidAmount > e.Amount {
		return middleware.ValidationErrorResponse(c, map[string]string{"paid_amount": "paid_amount exceeds the enrollment amount!"})
	}

	if err := NewGateway().SetManual(c.UserContext(), &e, academy.PaymentStatus(reqData.PaymentStatus), reqData.PaidAmount); err != nil {
		log.Errorf("manual payment for enrollment %d: %v", e.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update payment!", nil)
	}
	db.First(&e, e.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment updated successfully!", e)
}
