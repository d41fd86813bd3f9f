package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	AudienceAll          = "ALL"
	AudienceParticipants = "PARTICIPANTS"
	AudienceTrainers     = "TRAINERS"
	AudienceProgram      = "PROGRAM"
	AudienceClass        = "CLASS"
)

const (
	BroadcastDraft     = "DRAFT"
	BroadcastScheduled = "SCHEDULED"
	BroadcastSending   = "SENDING"
	BroadcastSent      = "SENT"
	BroadcastFailed    = "FAILED"
	BroadcastCancelled = "CANCELLED"
)

// EmailBroadcast is a bulk email job sent to an audience
type EmailBroadcast struct {
	gorm.Model
	Subject         string     `json:"subject"`
	HTMLBody        string     `json:"html_body" gorm:"type:text"`
	Audience        string     `json:"audience" gorm:"size:20"`
	AudienceRefID   *uint      `json:"audience_ref_id"` // program or class id
	ScheduledAt     *time.Time `json:"scheduled_at" gorm:"index"`
	SentAt          *time.Time `json:"sent_at"`
	Status          string     `json:"status" gorm:"size:20;default:'DRAFT';index"`
	TotalRecipients int        `json:"total_recipients" gorm:"default:0"`
	SentCount       int        `json:"sent_count" gorm:"default:0"`
	FailedCount     int        `json:"failed_count" gorm:"default:0"`
	LastError       string     `json:"last_error" gorm:"type:text"`
	CreatedBy       uint       `json:"created_by"`
}

// EmailBroadcastRecipient is the per-address outcome of a broadcast
type EmailBroadcastRecipient struct {
	gorm.Model
	BroadcastID uint   `json:"broadcast_id" gorm:"index;not null"`
	Email       string `json:"email" gorm:"size:191"`
	Status      string `json:"status" gorm:"size:20"` // SENT, FAILED
	Error       string `json:"error" gorm:"type:text"`
}
