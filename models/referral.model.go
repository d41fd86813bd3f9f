package models

import "gorm.io/gorm"

const (
	ReferralRegistered = "REGISTERED"
	ReferralEnrolled   = "ENROLLED"
	ReferralPaid       = "PAID"
)

// Referral records a user who signed up with another user's referral code
type Referral struct {
	gorm.Model
	ReferrerID     uint   `json:"referrer_id" gorm:"index;not null"`
	ReferredUserID uint   `json:"referred_user_id" gorm:"uniqueIndex;not null"`
	EnrollmentID   *uint  `json:"enrollment_id"`
	Code           string `json:"code" gorm:"size:32;index"`
	Status         string `json:"status" gorm:"size:20;default:'REGISTERED'"` // REGISTERED, ENROLLED, PAID
}
