package access

import (
	"context"
	"testing"

	"garuda/database"
	"garuda/models"
	"garuda/models/academy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassAccess(t *testing.T) {
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&academy.Class{}, &academy.TrainerAssignment{}, &academy.Enrollment{}))
	ctx := context.Background()

	class := academy.Class{ProgramID: 3, Name: "Batch A"}
	other := academy.Class{ProgramID: 3, Name: "Batch B"}
	require.NoError(t, db.Create(&class).Error)
	require.NoError(t, db.Create(&other).Error)
	require.NoError(t, db.Create(&academy.TrainerAssignment{ClassID: class.ID, TrainerID: 20}).Error)

	otherID := other.ID
	require.NoError(t, db.Create(&[]academy.Enrollment{
		{UserID: 30, ProgramID: 3, Status: academy.EnrollmentApproved},
		{UserID: 31, ProgramID: 3, Status: academy.EnrollmentPending},
		{UserID: 32, ProgramID: 3, ClassID: &otherID, Status: academy.EnrollmentCompleted},
	}).Error)

	cases := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"admin", Actor{UserID: 1, Role: models.RoleAdmin}, true},
		{"assigned trainer", Actor{UserID: 20, Role: models.RoleTrainer}, true},
		{"other trainer", Actor{UserID: 21, Role: models.RoleTrainer}, false},
		{"approved learner", Actor{UserID: 30, Role: models.RoleParticipant}, true},
		{"pending learner", Actor{UserID: 31, Role: models.RoleParticipant}, false},
		{"learner of another class", Actor{UserID: 32, Role: models.RoleParticipant}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := CanViewClass(ctx, db, tc.actor, class.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}

	_, err = CanViewClass(ctx, db, Actor{UserID: 1, Role: models.RoleAdmin}, 999)
	assert.ErrorIs(t, err, ErrClassNotFound)
}
