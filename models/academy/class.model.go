package academy

import (
	"time"

	"gorm.io/gorm"
)

const (
	ClassScheduled = "SCHEDULED"
	ClassOngoing   = "ONGOING"
	ClassCompleted = "COMPLETED"
	ClassCancelled = "CANCELLED"
)

// Class is one scheduled run of a program
type Class struct {
	gorm.Model
	ProgramID    uint      `json:"program_id" gorm:"index;not null"`
	Name         string    `json:"name"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	ScheduleDays string    `json:"schedule_days"`            // e.g. "MON,WED"
	StartTime    string    `json:"start_time" gorm:"size:5"` // HH:MM
	EndTime      string    `json:"end_time" gorm:"size:5"`
	Location     string    `json:"location"`
	Mode         string    `json:"mode" gorm:"size:10;default:'ONLINE'"` // ONLINE, OFFLINE, HYBRID
	Capacity     int       `json:"capacity" gorm:"default:0"`          // 0 = unlimited
	Status       string    `json:"status" gorm:"size:20;default:'SCHEDULED'"`
	IsDeleted    bool      `json:"-" gorm:"default:false"`

	Trainers []TrainerAssignment `json:"trainers,omitempty" gorm:"foreignKey:ClassID"`
}

// TrainerAssignment links a trainer to a class
type TrainerAssignment struct {
	gorm.Model
	ClassID   uint   `json:"class_id" gorm:"uniqueIndex:idx_class_trainer;not null"`
	TrainerID uint   `json:"trainer_id" gorm:"uniqueIndex:idx_class_trainer;not null"`
	Role      string `json:"role" gorm:"size:20;default:'LEAD'"` // LEAD, ASSISTANT
}
