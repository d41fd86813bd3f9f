package scheduler

import (
	"context"
	"testing"
	"time"

	"garuda/config"
	"garuda/database"
	"garuda/models"
	"garuda/models/academy"
	"garuda/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAdvanceClasses(t *testing.T) {
	db := openDB(t)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	classes := []academy.Class{
		{ProgramID: 1, Name: "starts today", StartDate: day(2025, 3, 10), EndDate: day(2025, 3, 20), Status: academy.ClassScheduled},
		{ProgramID: 1, Name: "future", StartDate: day(2025, 4, 1), EndDate: day(2025, 4, 9), Status: academy.ClassScheduled},
		{ProgramID: 1, Name: "ended", StartDate: day(2025, 2, 1), EndDate: day(2025, 3, 9), Status: academy.ClassOngoing},
		{ProgramID: 1, Name: "last day", StartDate: day(2025, 3, 1), EndDate: day(2025, 3, 10), Status: academy.ClassOngoing},
		{ProgramID: 1, Name: "cancelled", StartDate: day(2025, 3, 1), EndDate: day(2025, 3, 5), Status: academy.ClassCancelled},
	}
	require.NoError(t, db.Create(&classes).Error)

	require.NoError(t, advanceClasses(context.Background(), db, now, time.UTC))

	want := []string{academy.ClassOngoing, academy.ClassScheduled, academy.ClassCompleted, academy.ClassOngoing, academy.ClassCancelled}
	for i, c := range classes {
		var got academy.Class
		require.NoError(t, db.First(&got, c.ID).Error)
		assert.Equal(t, want[i], got.Status, c.Name)
	}
}

func TestAdvanceClassesUsesJakartaDate(t *testing.T) {
	db := openDB(t)
	wib := time.FixedZone("WIB", 7*60*60)
	// 00:05 on 10 March in Jakarta
	now := time.Date(2025, 3, 9, 17, 5, 0, 0, time.UTC)

	classes := []academy.Class{
		{ProgramID: 1, Name: "starts today", StartDate: day(2025, 3, 10), EndDate: day(2025, 3, 20), Status: academy.ClassScheduled},
		{ProgramID: 1, Name: "ended yesterday", StartDate: day(2025, 3, 1), EndDate: day(2025, 3, 9), Status: academy.ClassOngoing},
	}
	require.NoError(t, db.Create(&classes).Error)

	require.NoError(t, advanceClasses(context.Background(), db, now, wib))

	var got academy.Class
	require.NoError(t, db.First(&got, classes[0].ID).Error)
	assert.Equal(t, academy.ClassOngoing, got.Status)
	require.NoError(t, db.First(&got, classes[1].ID).Error)
	assert.Equal(t, academy.ClassCompleted, got.Status)
}

func TestCalendarDay(t *testing.T) {
	wib := time.FixedZone("WIB", 7*60*60)
	assert.Equal(t, day(2025, 3, 10), calendarDay(time.Date(2025, 3, 9, 17, 5, 0, 0, time.UTC), wib))
	assert.Equal(t, day(2025, 3, 9), calendarDay(time.Date(2025, 3, 9, 16, 59, 0, 0, time.UTC), wib))
}

func TestDueReminders(t *testing.T) {
	db := openDB(t)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	users := []models.User{
		{Name: "Ayu", Email: "ayu@example.com", Password: "x", ReferralCode: "GA00000001"},
		{Name: "Budi", Email: "budi@example.com", Password: "x", ReferralCode: "GA00000002"},
		{Name: "Citra", Email: "citra@example.com", Password: "x", ReferralCode: "GA00000003"},
	}
	require.NoError(t, db.Create(&users).Error)

	class := academy.Class{ProgramID: 7, Name: "Batch 1"}
	require.NoError(t, db.Create(&class).Error)

	soon := now.Add(30 * time.Hour)
	later := now.Add(72 * time.Hour)
	contents := []academy.LearningContent{
		{ClassID: class.ID, Title: "Tugas 1", ContentType: academy.ContentAssignment, DueDate: &soon, IsPublished: true},
		{ClassID: class.ID, Title: "Tugas 2", ContentType: academy.ContentAssignment, DueDate: &later, IsPublished: true},
	}
	require.NoError(t, db.Create(&contents).Error)

	require.NoError(t, db.Create(&[]academy.Enrollment{
		{UserID: users[0].ID, ProgramID: 7, Email: users[0].Email, Status: academy.EnrollmentApproved},
		{UserID: users[1].ID, ProgramID: 7, Email: users[1].Email, Status: academy.EnrollmentApproved},
		{UserID: users[2].ID, ProgramID: 7, Email: users[2].Email, Status: academy.EnrollmentPending},
	}).Error)

	// Budi already finished the first assignment
	require.NoError(t, db.Create(&academy.ContentProgress{UserID: users[1].ID, ContentID: contents[0].ID, ClassID: class.ID, CompletedAt: now}).Error)

	reminders, err := DueReminders(context.Background(), db, now)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, "ayu@example.com", reminders[0].Email)
	assert.Equal(t, contents[0].ID, reminders[0].ContentID)
}

func TestReconcileJobRemovesDuplicates(t *testing.T) {
	db := openDB(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := []academy.Enrollment{
		{UserID: 5, ProgramID: 2, Email: "x@example.com", Status: academy.EnrollmentPending},
		{UserID: 5, ProgramID: 2, Email: "x@example.com", Status: academy.EnrollmentApproved},
	}
	for i := range rows {
		rows[i].CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	require.NoError(t, ReconcileEnrollments(db)(context.Background()))

	var left []academy.Enrollment
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, rows[1].ID, left[0].ID)
}

func TestDispatchJobSendsDueBroadcasts(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Create(&models.User{Name: "Ayu", Email: "ayu@example.com", Password: "x", ReferralCode: "GA00000001"}).Error)

	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	b := models.EmailBroadcast{Subject: "Info", HTMLBody: "<p>hi</p>", Audience: models.AudienceAll, ScheduledAt: &past, Status: models.BroadcastScheduled}
	require.NoError(t, db.Create(&b).Error)

	mailer := &utils.LogMailer{}
	require.NoError(t, DispatchBroadcasts(db, mailer)(context.Background()))

	require.NoError(t, db.First(&b, b.ID).Error)
	assert.Equal(t, models.BroadcastSent, b.Status)
	assert.Len(t, mailer.Messages(), 1)
}

func TestStartRejectsBadCron(t *testing.T) {
	cfg := config.FromEnv()
	cfg.ReconcileCron = "every tuesday"
	_, err := Start(cfg, openDB(t), &utils.LogMailer{})
	assert.Error(t, err)
}
