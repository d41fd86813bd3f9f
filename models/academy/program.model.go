package academy

import "gorm.io/gorm"

const (
	ProgramDraft     = "DRAFT"
	ProgramPublished = "PUBLISHED"
	ProgramArchived  = "ARCHIVED"
)

// Program is a catalog entry participants enroll into
type Program struct {
	gorm.Model
	Title         string `json:"title"`
	Slug          string `json:"slug" gorm:"uniqueIndex;size:191"`
	Description   string `json:"description" gorm:"type:text"`
	Category      string `json:"category" gorm:"size:100;index"`
	Price         int64  `json:"price" gorm:"default:0"` // IDR
	DurationHours int    `json:"duration_hours" gorm:"default:0"`
	Status        string `json:"status" gorm:"size:20;default:'DRAFT'"` // DRAFT, PUBLISHED, ARCHIVED
	ThumbnailURL  string `json:"thumbnail_url"`
	IsDeleted     bool   `json:"-" gorm:"default:false"`
}
