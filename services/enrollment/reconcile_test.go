package enrollment

import (
	"context"
	"testing"
	"time"

	"garuda/database"
	"garuda/models/academy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&academy.Enrollment{}))
	return db
}

func seed(t *testing.T, db *gorm.DB, rows ...academy.Enrollment) []academy.Enrollment {
	t.Helper()
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}
	return rows
}

func countEnrollments(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&academy.Enrollment{}).Count(&n).Error)
	return n
}

func TestReconcilerScanAndApply(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	rows := seed(t, db,
		academy.Enrollment{UserID: 1, ProgramID: 10, Email: "a@x.id", Status: academy.EnrollmentPending, PaymentStatus: academy.PaymentUnpaid, Model: gorm.Model{CreatedAt: base}},
		academy.Enrollment{UserID: 1, ProgramID: 10, Email: "a@x.id", Status: academy.EnrollmentApproved, PaymentStatus: academy.PaymentUnpaid, Model: gorm.Model{CreatedAt: base.Add(time.Hour)}},
		academy.Enrollment{UserID: 1, ProgramID: 11, Email: "a@x.id", Status: academy.EnrollmentPending, PaymentStatus: academy.PaymentUnpaid, Model: gorm.Model{CreatedAt: base}},
		academy.Enrollment{UserID: 2, ProgramID: 10, Email: "b@x.id", Status: academy.EnrollmentPending, PaymentStatus: academy.PaymentPaid, Model: gorm.Model{CreatedAt: base.Add(time.Hour)}},
		academy.Enrollment{UserID: 2, ProgramID: 10, Email: "b@x.id", Status: academy.EnrollmentPending, PaymentStatus: academy.PaymentUnpaid, Model: gorm.Model{CreatedAt: base}},
	)

	r := NewReconciler(db)
	ctx := context.Background()

	plan, err := r.Scan(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, plan.Groups, 2)
	assert.ElementsMatch(t, []uint{rows[0].ID, rows[4].ID}, plan.DeleteIDs())
	assert.ElementsMatch(t, []uint{rows[1].ID, rows[3].ID}, plan.KeeperIDs())

	report := r.Apply(ctx, plan)
	assert.ElementsMatch(t, []uint{rows[0].ID, rows[4].ID}, report.Deleted)
	assert.Empty(t, report.Failed)
	assert.Equal(t, int64(3), countEnrollments(t, db))

	again, err := r.Scan(ctx, Filter{})
	require.NoError(t, err)
	assert.True(t, again.Empty())
}

func TestReconcilerScanByEmail(t *testing.T) {
	db := newTestDB(t)
	seed(t, db,
		academy.Enrollment{UserID: 1, ProgramID: 10, Email: "a@x.id", Status: academy.EnrollmentPending},
		academy.Enrollment{UserID: 1, ProgramID: 10, Email: "a@x.id", Status: academy.EnrollmentPending},
		academy.Enrollment{UserID: 2, ProgramID: 10, Email: "b@x.id", Status: academy.EnrollmentPending},
		academy.Enrollment{UserID: 2, ProgramID: 10, Email: "b@x.id", Status: academy.EnrollmentPending},
	)

	plan, err := NewReconciler(db).Scan(context.Background(), Filter{Email: " A@X.ID "})
	require.NoError(t, err)
	require.Len(t, plan.Groups, 1)
	assert.Equal(t, "user:1|program:10", plan.Groups[0].Group.Key)
}

func TestReconcilerMergesEmailOnlyRows(t *testing.T) {
	db := newTestDB(t)
	rows := seed(t, db,
		academy.Enrollment{UserID: 4, ProgramID: 10, Email: "d@x.id", Status: academy.EnrollmentPending},
		academy.Enrollment{ProgramID: 10, Email: "D@X.ID", Status: academy.EnrollmentApproved},
	)
	ctx := context.Background()

	plan, err := NewReconciler(db).Scan(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, plan.Groups, 1)
	assert.Equal(t, "user:4|program:10", plan.Groups[0].Group.Key)
	assert.Equal(t, []uint{rows[1].ID}, plan.KeeperIDs())
	assert.Equal(t, []uint{rows[0].ID}, plan.DeleteIDs())
}

func TestReconcilerReportsPartialFailure(t *testing.T) {
	db := newTestDB(t)
	rows := seed(t, db,
		academy.Enrollment{UserID: 3, ProgramID: 10, Email: "c@x.id", Status: academy.EnrollmentCompleted},
		academy.Enrollment{UserID: 3, ProgramID: 10, Email: "c@x.id", Status: academy.EnrollmentPending},
		academy.Enrollment{UserID: 3, ProgramID: 10, Email: "c@x.id", Status: academy.EnrollmentRejected},
	)

	r := NewReconciler(db)
	ctx := context.Background()
	plan, err := r.Scan(ctx, Filter{ProgramID: 10})
	require.NoError(t, err)

	// another admin removed one duplicate between preview and apply
	require.NoError(t, db.Unscoped().Delete(&academy.Enrollment{}, rows[1].ID).Error)

	report := r.Apply(ctx, plan)
	assert.True(t, report.Partial())
	assert.Equal(t, []uint{rows[2].ID}, report.Deleted)
	assert.Contains(t, report.Failed, rows[1].ID)
	assert.Equal(t, []uint{rows[0].ID}, report.Kept)

	var keeper academy.Enrollment
	require.NoError(t, db.First(&keeper, rows[0].ID).Error)
}

func TestReconcilerNeverDeletesKeeper(t *testing.T) {
	db := newTestDB(t)
	rows := seed(t, db,
		academy.Enrollment{UserID: 4, ProgramID: 10, Email: "d@x.id", Status: academy.EnrollmentApproved},
	)
	keeper := FromEnrollment(rows[0])

	plan := Plan{Groups: []PlannedGroup{{Decision: Decision{Keeper: &keeper, Delete: []uint{keeper.ID}}}}}
	report := NewReconciler(db).Apply(context.Background(), plan)

	assert.Empty(t, report.Deleted)
	assert.Contains(t, report.Failed, keeper.ID)
	assert.Equal(t, int64(1), countEnrollments(t, db))
}

func TestReconcilerScanFailsWithoutDatabase(t *testing.T) {
	_, err := (&Reconciler{}).Scan(context.Background(), Filter{})
	assert.ErrorIs(t, err, ErrNoDatabase)
}
