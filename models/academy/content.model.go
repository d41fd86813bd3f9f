package academy

import (
	"time"

	"gorm.io/gorm"
)

type ContentType string

const (
	ContentVideo      ContentType = "video"
	ContentText       ContentType = "text"
	ContentQuiz       ContentType = "quiz"
	ContentDocument   ContentType = "document"
	ContentAssignment ContentType = "assignment"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentVideo, ContentText, ContentQuiz, ContentDocument, ContentAssignment:
		return true
	}
	return false
}

// LearningContent is an atomic unit of instructional material within a class
type LearningContent struct {
	gorm.Model
	ClassID     uint        `json:"class_id" gorm:"index;not null"`
	Title       string      `json:"title"`
	Description string      `json:"description" gorm:"type:text"`
	ContentType ContentType `json:"content_type" gorm:"type:varchar(20);default:'text'"`
	Body        string      `json:"body" gorm:"type:text"`
	VideoURL    string      `json:"video_url"`
	DocumentURL string      `json:"document_url"`
	OrderIndex  int         `json:"order_index" gorm:"default:0"`
	DueDate     *time.Time  `json:"due_date"`
	IsPublished bool        `json:"is_published" gorm:"default:false"`
	IsDeleted   bool        `json:"-" gorm:"default:false"`
}

// ContentProgress tracks a learner's completion of one content item
type ContentProgress struct {
	gorm.Model
	UserID      uint      `json:"user_id" gorm:"uniqueIndex:idx_progress_user_content;not null"`
	ContentID   uint      `json:"content_id" gorm:"uniqueIndex:idx_progress_user_content;not null"`
	ClassID     uint      `json:"class_id" gorm:"index"`
	CompletedAt time.Time `json:"completed_at"`
}

func (ContentProgress) TableName() string {
	return "content_progresses"
}
