package access

import (
	"context"
	"errors"

	"garuda/models"
	"garuda/models/academy"

	"gorm.io/gorm"
)

var ErrClassNotFound = errors.New("class not found")

// Actor is the caller an access check is made for.
type Actor struct {
	UserID uint
	Role   string
}

// IsClassTrainer reports whether userID is assigned to the class.
func IsClassTrainer(ctx context.Context, db *gorm.DB, userID, classID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&academy.TrainerAssignment{}).
		Where("class_id = ? AND trainer_id = ?", classID, userID).
		Count(&n).Error
	return n > 0, err
}

// CanManageClass is true for admins and the class's assigned trainers.
func CanManageClass(ctx context.Context, db *gorm.DB, a Actor, classID uint) (bool, error) {
	switch a.Role {
	case models.RoleAdmin:
		return true, nil
	case models.RoleTrainer:
		return IsClassTrainer(ctx, db, a.UserID, classID)
	}
	return false, nil
}

// LearnerEnrollment returns the approved or completed enrollment that gives
// userID access to the class, or gorm.ErrRecordNotFound.
func LearnerEnrollment(ctx context.Context, db *gorm.DB, userID uint, class academy.Class) (academy.Enrollment, error) {
	var e academy.Enrollment
	err := db.WithContext(ctx).
		Where("user_id = ? AND program_id = ? AND status IN ?", userID, class.ProgramID,
			[]academy.EnrollmentStatus{academy.EnrollmentApproved, academy.EnrollmentCompleted}).
		Where("class_id IS NULL OR class_id = ?", class.ID).
		Order("id").
		First(&e).Error
	return e, err
}

// CanViewClass is true for class managers and learners with an active
// enrollment in the class's program.
func CanViewClass(ctx context.Context, db *gorm.DB, a Actor, classID uint) (bool, error) {
	var class academy.Class
	if err := db.WithContext(ctx).Where("id = ? AND is_deleted = ?", classID, false).First(&class).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrClassNotFound
		}
		return false, err
	}

	ok, err := CanManageClass(ctx, db, a, classID)
	if err != nil || ok {
		return ok, err
	}

	_, err = LearnerEnrollment(ctx, db, a.UserID, class)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}
