package progress

import (
	"context"
	"time"

	"garuda/models/academy"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tracker stores content completion and promotes enrollments whose class
// has been fully completed.
type Tracker struct {
	DB *gorm.DB
}

func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{DB: db}
}

// ClassProgress is a learner's completion state within one class.
type ClassProgress struct {
	ClassID      uint   `json:"class_id"`
	Total        int64  `json:"total"`
	Completed    int64  `json:"completed"`
	Percentage   int    `json:"percentage"`
	CompletedIDs []uint `json:"completed_ids"`
}

// MarkComplete records completion once; repeated calls are no-ops.
func (t *Tracker) MarkComplete(ctx context.Context, userID, contentID, classID uint) error {
	return t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := academy.ContentProgress{
			UserID:      userID,
			ContentID:   contentID,
			ClassID:     classID,
			CompletedAt: time.Now(),
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}
		return promoteEnrollment(tx, userID, classID)
	})
}

// promoteEnrollment marks an approved enrollment completed when every
// published content item of the class is done.
func promoteEnrollment(tx *gorm.DB, userID, classID uint) error {
	p, err := classProgress(tx, userID, classID)
	if err != nil || p.Total == 0 || p.Completed < p.Total {
		return err
	}

	var class academy.Class
	if err := tx.Select("id", "program_id").First(&class, classID).Error; err != nil {
		return err
	}

	now := time.Now()
	return tx.Model(&academy.Enrollment{}).
		Where("user_id = ? AND program_id = ? AND status = ?", userID, class.ProgramID, academy.EnrollmentApproved).
		Updates(map[string]interface{}{
			"status":       academy.EnrollmentCompleted,
			"completed_at": now,
		}).Error
}

// Class returns progress over the published content of a class.
func (t *Tracker) Class(ctx context.Context, userID, classID uint) (ClassProgress, error) {
	return classProgress(t.DB.WithContext(ctx), userID, classID)
}

func classProgress(db *gorm.DB, userID, classID uint) (ClassProgress, error) {
	p := ClassProgress{ClassID: classID, CompletedIDs: []uint{}}

	if err := db.Model(&academy.LearningContent{}).
		Where("class_id = ? AND is_published = ? AND is_deleted = ?", classID, true, false).
		Count(&p.Total).Error; err != nil {
		return p, err
	}

	if err := db.Model(&academy.ContentProgress{}).
		Joins("JOIN learning_contents ON learning_contents.id = content_progresses.content_id").
		Where("content_progresses.user_id = ? AND learning_contents.class_id = ?", userID, classID).
		Where("learning_contents.is_published = ? AND learning_contents.is_deleted = ?", true, false).
		Pluck("content_progresses.content_id", &p.CompletedIDs).Error; err != nil {
		return p, err
	}
	p.Completed = int64(len(p.CompletedIDs))

	if p.Total > 0 {
		p.Percentage = int(p.Completed * 100 / p.Total)
	}
	return p, nil
}

// IsComplete reports whether the learner completed a content item.
func (t *Tracker) IsComplete(ctx context.Context, userID, contentID uint) (bool, error) {
	var n int64
	err := t.DB.WithContext(ctx).Model(&academy.ContentProgress{}).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Count(&n).Error
	return n > 0, err
}
