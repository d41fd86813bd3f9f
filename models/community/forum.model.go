package community

import (
	"time"

	"gorm.io/gorm"
)

// ForumThread is a discussion topic inside a class
type ForumThread struct {
	gorm.Model
	ClassID     uint       `json:"class_id" gorm:"index;not null"`
	AuthorID    uint       `json:"author_id" gorm:"index;not null"`
	Title       string     `json:"title"`
	Body        string     `json:"body" gorm:"type:text"`
	IsPinned    bool       `json:"is_pinned" gorm:"default:false"`
	IsLocked    bool       `json:"is_locked" gorm:"default:false"`
	ReplyCount  int        `json:"reply_count" gorm:"default:0"`
	LastReplyAt *time.Time `json:"last_reply_at"`
	IsDeleted   bool       `json:"-" gorm:"default:false"`

	Replies []ForumReply `json:"replies,omitempty" gorm:"foreignKey:ThreadID"`
}

type ForumReply struct {
	gorm.Model
	ThreadID  uint   `json:"thread_id" gorm:"index;not null"`
	AuthorID  uint   `json:"author_id" gorm:"index;not null"`
	Body      string `json:"body" gorm:"type:text"`
	IsDeleted bool   `json:"-" gorm:"default:false"`
}
