package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin       = "ADMIN"
	RoleTrainer     = "TRAINER"
	RoleParticipant = "PARTICIPANT"
)

type User struct {
	gorm.Model
	Name         string     `json:"name" gorm:"default:''"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:191;not null"`
	Mobile       string     `json:"mobile" gorm:"default:''"`
	Role         string     `json:"role" gorm:"size:20;default:'PARTICIPANT'"` // ADMIN, TRAINER, PARTICIPANT
	Password     string     `json:"-" gorm:"not null"`
	ReferralCode string     `json:"referral_code" gorm:"uniqueIndex;size:32"`
	ReferredBy   *uint      `json:"referred_by"`
	LastLogin    *time.Time `json:"last_login"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	IsDeleted    bool       `json:"-" gorm:"default:false"`
}

// IsStaff reports whether the user may manage classes and content.
func (u User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleTrainer
}
