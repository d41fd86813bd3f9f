package scheduler

import (
	"context"
	"time"

	"garuda/models/academy"
	"garuda/utils"

	"gorm.io/gorm"
)

// Reminder is one learner to notify about one item that is due soon.
type Reminder struct {
	Email     string
	Name      string
	ContentID uint
	Title     string
	DueDate   time.Time
}

// DueReminders finds published content due within [now+24h, now+48h) and the
// learners who have not completed it yet. Running daily notifies each item once.
func DueReminders(ctx context.Context, db *gorm.DB, now time.Time) ([]Reminder, error) {
	from := now.Add(24 * time.Hour)
	to := now.Add(48 * time.Hour)

	var reminders []Reminder
	err := db.WithContext(ctx).
		Table("learning_contents").
		Select("users.email, users.name, learning_contents.id AS content_id, learning_contents.title, learning_contents.due_date").
		Joins("JOIN classes ON classes.id = learning_contents.class_id").
		Joins("JOIN enrollments ON enrollments.program_id = classes.program_id AND (enrollments.class_id IS NULL OR enrollments.class_id = classes.id)").
		Joins("JOIN users ON users.id = enrollments.user_id").
		Joins("LEFT JOIN content_progresses ON content_progresses.content_id = learning_contents.id AND content_progresses.user_id = users.id AND content_progresses.deleted_at IS NULL").
		Where("learning_contents.due_date >= ? AND learning_contents.due_date < ?", from, to).
		Where("learning_contents.is_published = ? AND learning_contents.is_deleted = ? AND learning_contents.deleted_at IS NULL", true, false).
		Where("enrollments.status = ? AND enrollments.deleted_at IS NULL", academy.EnrollmentApproved).
		Where("content_progresses.id IS NULL").
		Order("learning_contents.id, users.email").
		Scan(&reminders).Error
	return reminders, err
}

// RemindDueContent emails learners about content due within two days.
func RemindDueContent(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		reminders, err := DueReminders(ctx, db, time.Now())
		if err != nil {
			return err
		}
		for _, r := range reminders {
			utils.SendDueReminderEmail(r.Email, r.Name, r.Title, r.DueDate)
		}
		if len(reminders) > 0 {
			log.WithField("count", len(reminders)).Info("due reminders sent")
		}
		return nil
	}
}
