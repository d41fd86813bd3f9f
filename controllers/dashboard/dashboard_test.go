package dashboardController

import (
	"context"
	"testing"
	"time"

	"garuda/database"
	"garuda/models"
	"garuda/models/academy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	require.NoError(t, db.Create(&[]models.User{
		{Name: "A", Email: "a@example.com", Password: "x", Role: models.RoleParticipant, ReferralCode: "GA1"},
		{Name: "B", Email: "b@example.com", Password: "x", Role: models.RoleParticipant, ReferralCode: "GA2"},
		{Name: "T", Email: "t@example.com", Password: "x", Role: models.RoleTrainer, ReferralCode: "GA3"},
	}).Error)
	require.NoError(t, db.Create(&academy.Program{Title: "P", Slug: "p"}).Error)
	require.NoError(t, db.Create(&[]academy.Enrollment{
		{UserID: 1, ProgramID: 1, Status: academy.EnrollmentApproved, PaymentStatus: academy.PaymentPaid, Amount: 500000, PaidAmount: 500000},
		{UserID: 2, ProgramID: 1, Status: academy.EnrollmentPending, PaymentStatus: academy.PaymentPartial, Amount: 500000, PaidAmount: 200000},
		{UserID: 3, ProgramID: 1, Status: academy.EnrollmentPending, PaymentStatus: academy.PaymentUnpaid, Amount: 500000},
	}).Error)
	require.NoError(t, db.Create(&models.SupportTicket{UserID: 1, Title: "Login", Status: models.TicketOpen}).Error)

	s, err := Collect(context.Background(), db, time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(1), s.Programs)
	assert.Equal(t, int64(2), s.Participants)
	assert.Equal(t, int64(1), s.Trainers)
	assert.Equal(t, int64(3), s.Enrollments)
	assert.Equal(t, int64(3), s.EnrollmentsThisMonth)
	assert.Equal(t, map[string]int64{"approved": 1, "pending": 2}, s.EnrollmentsByStatus)
	assert.Equal(t, int64(1), s.EnrollmentsByPayment["partial"])
	assert.Equal(t, int64(700000), s.RevenueThisMonth)
	assert.Equal(t, int64(1), s.OpenTickets)
	assert.Zero(t, s.PendingGrading)
}
