package enrollmentValidator

import (
	"strings"

	"garuda/validators"

	"github.com/gofiber/fiber/v2"
)

type EnrollRequest struct {
	ClassID      *uint  `json:"class_id"`
	ReferralCode string `json:"referral_code" validate:"max=32"`
}

type EnrollmentListQuery struct {
	validators.PageQuery
	ProgramID     uint   `query:"program_id" json:"program_id"`
	Status        string `query:"status" json:"status" validate:"omitempty,oneof=pending approved completed rejected cancelled"`
	PaymentStatus string `query:"payment_status" json:"payment_status" validate:"omitempty,oneof=unpaid partial paid refunded"`
	Search        string `query:"search" json:"search" validate:"max=100"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected completed"`
	Notes  string `json:"notes" validate:"max=1000"`
}

type PaymentRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=unpaid partial paid refunded"`
	PaidAmount    *int64 `json:"paid_amount" validate:"omitempty,gte=0"`
}

type DuplicatesQuery struct {
	Email     string `query:"email" json:"email" validate:"omitempty,email"`
	ProgramID uint   `query:"program_id" json:"program_id"`
}

func Enroll() fiber.Handler {
	return validators.Body("validatedEnroll", func(r *EnrollRequest, _ map[string]string) {
		r.ReferralCode = strings.ToUpper(strings.TrimSpace(r.ReferralCode))
	})
}

func EnrollmentList() fiber.Handler {
	return validators.Query[EnrollmentListQuery]("validatedEnrollmentList", nil)
}

func Status() fiber.Handler {
	return validators.Body[StatusRequest]("validatedStatus", nil)
}

func Payment() fiber.Handler {
	return validators.Body[PaymentRequest]("validatedPayment", nil)
}

func normalizeEmail(r *DuplicatesQuery, _ map[string]string) {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// DuplicatesPreview reads the filter from the query string.
func DuplicatesPreview() fiber.Handler {
	return validators.Query("validatedDuplicates", normalizeEmail)
}

// DuplicatesResolve reads the same filter from the JSON body.
func DuplicatesResolve() fiber.Handler {
	return validators.Body("validatedDuplicates", normalizeEmail)
}
