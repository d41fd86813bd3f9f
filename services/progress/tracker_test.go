package progress

import (
	"context"
	"testing"

	"garuda/database"
	"garuda/models/academy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, academy.Class, []academy.LearningContent) {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&academy.Class{}, &academy.LearningContent{}, &academy.ContentProgress{}, &academy.Enrollment{}))

	class := academy.Class{ProgramID: 4, Name: "Batch 1"}
	require.NoError(t, db.Create(&class).Error)

	contents := []academy.LearningContent{
		{ClassID: class.ID, Title: "Intro", ContentType: academy.ContentVideo, IsPublished: true},
		{ClassID: class.ID, Title: "Kuis", ContentType: academy.ContentQuiz, IsPublished: true},
		{ClassID: class.ID, Title: "Draft", ContentType: academy.ContentText, IsPublished: false},
	}
	require.NoError(t, db.Create(&contents).Error)
	return db, class, contents
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	db, class, contents := setup(t)
	tr := NewTracker(db)
	ctx := context.Background()

	require.NoError(t, tr.MarkComplete(ctx, 1, contents[0].ID, class.ID))
	require.NoError(t, tr.MarkComplete(ctx, 1, contents[0].ID, class.ID))

	var n int64
	require.NoError(t, db.Model(&academy.ContentProgress{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	done, err := tr.IsComplete(ctx, 1, contents[0].ID)
	require.NoError(t, err)
	assert.True(t, done)

	p, err := tr.Class(ctx, 1, class.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.Total)
	assert.Equal(t, int64(1), p.Completed)
	assert.Equal(t, 50, p.Percentage)
}

func TestCompletingClassPromotesApprovedEnrollment(t *testing.T) {
	db, class, contents := setup(t)
	tr := NewTracker(db)
	ctx := context.Background()

	enrollment := academy.Enrollment{UserID: 1, ProgramID: class.ProgramID, Status: academy.EnrollmentApproved}
	other := academy.Enrollment{UserID: 2, ProgramID: class.ProgramID, Status: academy.EnrollmentPending}
	require.NoError(t, db.Create(&enrollment).Error)
	require.NoError(t, db.Create(&other).Error)

	require.NoError(t, tr.MarkComplete(ctx, 1, contents[0].ID, class.ID))
	require.NoError(t, db.First(&enrollment, enrollment.ID).Error)
	assert.Equal(t, academy.EnrollmentApproved, enrollment.Status)

	require.NoError(t, tr.MarkComplete(ctx, 1, contents[1].ID, class.ID))
	require.NoError(t, db.First(&enrollment, enrollment.ID).Error)
	assert.Equal(t, academy.EnrollmentCompleted, enrollment.Status)
	assert.NotNil(t, enrollment.CompletedAt)

	require.NoError(t, tr.MarkComplete(ctx, 2, contents[0].ID, class.ID))
	require.NoError(t, tr.MarkComplete(ctx, 2, contents[1].ID, class.ID))
	require.NoError(t, db.First(&other, other.ID).Error)
	assert.Equal(t, academy.EnrollmentPending, other.Status)
}
