package academy

import (
	"time"

	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentApproved  EnrollmentStatus = "approved"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentRejected  EnrollmentStatus = "rejected"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// Valid reports whether s is a known enrollment status.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentPending, EnrollmentApproved, EnrollmentCompleted, EnrollmentRejected, EnrollmentCancelled:
		return true
	}
	return false
}

// Active statuses count as an existing registration for the (user, program) pair.
func (s EnrollmentStatus) Active() bool {
	return s == EnrollmentPending || s == EnrollmentApproved || s == EnrollmentCompleted
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPartial, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// Enrollment links one participant to one program (and optionally one class)
type Enrollment struct {
	gorm.Model
	UserID         uint             `json:"user_id" gorm:"index"`
	ProgramID      uint             `json:"program_id" gorm:"index;not null"`
	ClassID        *uint            `json:"class_id" gorm:"index"`
	Email          string           `json:"email" gorm:"size:191;index"`
	Status         EnrollmentStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	PaymentStatus  PaymentStatus    `json:"payment_status" gorm:"type:varchar(20);default:'unpaid'"`
	Amount         int64            `json:"amount" gorm:"default:0"`
	PaidAmount     int64            `json:"paid_amount" gorm:"default:0"`
	PaymentOrderID string           `json:"payment_order_id" gorm:"size:100;index"`
	ReferralCode   string           `json:"referral_code" gorm:"size:32"`
	Notes          string           `json:"notes" gorm:"type:text"`
	ApprovedAt     *time.Time       `json:"approved_at"`
	CompletedAt    *time.Time       `json:"completed_at"`
}

// PaymentNotification records each applied gateway notification once.
// EventKey is the gateway transaction id, or the order id when none is sent.
// A redelivery has the same key, status and gross amount.
type PaymentNotification struct {
	ID                uint      `json:"id" gorm:"primarykey"`
	EnrollmentID      uint      `json:"enrollment_id" gorm:"index;not null"`
	OrderID           string    `json:"order_id" gorm:"size:100"`
	EventKey          string    `json:"event_key" gorm:"size:100;not null;uniqueIndex:idx_payment_event"`
	TransactionStatus string    `json:"transaction_status" gorm:"size:30;not null;uniqueIndex:idx_payment_event"`
	GrossAmount       int64     `json:"gross_amount" gorm:"uniqueIndex:idx_payment_event"`
	CreatedAt         time.Time `json:"created_at"`
}
