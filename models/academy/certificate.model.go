package academy

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CertificateRequestPending  = "PENDING"
	CertificateRequestApproved = "APPROVED"
	CertificateRequestRejected = "REJECTED"
)

// CertificateTemplate holds the text rendered onto issued certificates.
// BodyText supports {{name}}, {{program}}, {{date}} and {{number}}.
type CertificateTemplate struct {
	gorm.Model
	Name          string         `json:"name"`
	TitleText     string         `json:"title_text"`
	BodyText      string         `json:"body_text" gorm:"type:text"`
	BackgroundURL string         `json:"background_url"`
	Layout        datatypes.JSON `json:"layout"`
	IsDefault     bool           `json:"is_default" gorm:"default:false"`
	IsDeleted     bool           `json:"-" gorm:"default:false"`
}

// CertificateRequest represents a participant's request for a completion certificate
type CertificateRequest struct {
	gorm.Model
	UserID          uint       `json:"user_id" gorm:"index;not null"`
	ProgramID       uint       `json:"program_id" gorm:"index;not null"`
	EnrollmentID    uint       `json:"enrollment_id" gorm:"index;not null"`
	Status          string     `json:"status" gorm:"size:20;default:'PENDING'"` // PENDING, APPROVED, REJECTED
	RequestedAt     time.Time  `json:"requested_at"`
	ApprovedAt      *time.Time `json:"approved_at"`
	ApprovedBy      *uint      `json:"approved_by"`
	RejectionReason string     `json:"rejection_reason"`
}

// Certificate represents an issued certificate of completion
type Certificate struct {
	gorm.Model
	UserID            uint      `json:"user_id" gorm:"index;not null"`
	ProgramID         uint      `json:"program_id" gorm:"index;not null"`
	EnrollmentID      uint      `json:"enrollment_id" gorm:"index"`
	TemplateID        *uint     `json:"template_id"`
	CertificateNumber string    `json:"certificate_number" gorm:"uniqueIndex;size:64"`
	RecipientName     string    `json:"recipient_name"`
	RenderedTitle     string    `json:"rendered_title"`
	RenderedText      string    `json:"rendered_text" gorm:"type:text"`
	IssuedAt          time.Time `json:"issued_at"`
	IsRevoked         bool      `json:"is_revoked" gorm:"default:false"`
}
