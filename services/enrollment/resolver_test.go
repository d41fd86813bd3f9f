package enrollment

import (
	"testing"
	"time"

	"garuda/models/academy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func rec(id uint, status academy.EnrollmentStatus, payment academy.PaymentStatus, created time.Time) Record {
	return Record{ID: id, UserID: 7, ProgramID: 1, Status: status, PaymentStatus: payment, CreatedAt: created}
}

func TestStatusScore(t *testing.T) {
	cases := []struct {
		name    string
		status  academy.EnrollmentStatus
		payment academy.PaymentStatus
		want    int
	}{
		{"completed", academy.EnrollmentCompleted, academy.PaymentUnpaid, 5},
		{"completed beats paid", academy.EnrollmentCompleted, academy.PaymentPaid, 5},
		{"approved", academy.EnrollmentApproved, academy.PaymentUnpaid, 4},
		{"paid pending", academy.EnrollmentPending, academy.PaymentPaid, 3},
		{"paid rejected", academy.EnrollmentRejected, academy.PaymentPaid, 3},
		{"pending", academy.EnrollmentPending, academy.PaymentUnpaid, 2},
		{"partial pending", academy.EnrollmentPending, academy.PaymentPartial, 2},
		{"rejected", academy.EnrollmentRejected, academy.PaymentUnpaid, 1},
		{"cancelled", academy.EnrollmentCancelled, academy.PaymentRefunded, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusScore(rec(1, tc.status, tc.payment, t0)))
		})
	}
}

func TestResolveKeepsHighestStatus(t *testing.T) {
	records := []Record{
		rec(1, academy.EnrollmentPending, academy.PaymentUnpaid, t0),
		rec(2, academy.EnrollmentApproved, academy.PaymentUnpaid, t0),
		rec(3, academy.EnrollmentCompleted, academy.PaymentUnpaid, t0),
	}

	d := Resolve(records)
	require.NotNil(t, d.Keeper)
	assert.Equal(t, uint(3), d.Keeper.ID)
	assert.ElementsMatch(t, []uint{1, 2}, d.Delete)
}

func TestResolveOlderWinsTies(t *testing.T) {
	records := []Record{
		rec(10, academy.EnrollmentPending, academy.PaymentUnpaid, t0.Add(time.Hour)),
		rec(11, academy.EnrollmentPending, academy.PaymentUnpaid, t0),
	}

	assert.Equal(t, []uint{10}, DuplicatesToDelete(records))
}

func TestResolvePaidBeatsPending(t *testing.T) {
	records := []Record{
		rec(1, academy.EnrollmentPending, academy.PaymentUnpaid, t0),
		rec(2, academy.EnrollmentPending, academy.PaymentPaid, t0.Add(time.Minute)),
	}

	d := Resolve(records)
	assert.Equal(t, uint(2), d.Keeper.ID)
	assert.Equal(t, []uint{1}, d.Delete)
}

func TestResolveFullTieUsesLowestID(t *testing.T) {
	a := rec(21, academy.EnrollmentApproved, academy.PaymentPaid, t0)
	b := rec(20, academy.EnrollmentApproved, academy.PaymentPaid, t0)

	assert.Equal(t, []uint{21}, DuplicatesToDelete([]Record{a, b}))
	assert.Equal(t, []uint{21}, DuplicatesToDelete([]Record{b, a}))
}

func TestResolveSmallInputs(t *testing.T) {
	assert.Empty(t, DuplicatesToDelete(nil))
	assert.Empty(t, DuplicatesToDelete([]Record{rec(1, academy.EnrollmentRejected, academy.PaymentUnpaid, t0)}))

	d := Resolve([]Record{rec(4, academy.EnrollmentPending, academy.PaymentUnpaid, t0)})
	assert.Equal(t, uint(4), d.Keeper.ID)
	assert.Empty(t, d.Delete)
}

func TestResolveIsIdempotent(t *testing.T) {
	records := []Record{
		rec(1, academy.EnrollmentPending, academy.PaymentUnpaid, t0),
		rec(2, academy.EnrollmentApproved, academy.PaymentUnpaid, t0.Add(time.Hour)),
		rec(3, academy.EnrollmentRejected, academy.PaymentPaid, t0.Add(2*time.Hour)),
	}
	first := Resolve(records)

	var remaining []Record
	deleted := map[uint]bool{}
	for _, id := range first.Delete {
		deleted[id] = true
	}
	for _, r := range records {
		if !deleted[r.ID] {
			remaining = append(remaining, r)
		}
	}

	require.Len(t, remaining, 1)
	assert.Equal(t, first.Keeper.ID, remaining[0].ID)
	assert.Empty(t, DuplicatesToDelete(remaining))
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	records := []Record{
		rec(1, academy.EnrollmentPending, academy.PaymentUnpaid, t0),
		rec(2, academy.EnrollmentCompleted, academy.PaymentUnpaid, t0),
	}
	Resolve(records)

	assert.Equal(t, uint(1), records[0].ID)
	assert.Equal(t, academy.EnrollmentPending, records[0].Status)
}

func TestGroupDuplicates(t *testing.T) {
	records := []Record{
		{ID: 1, UserID: 5, ProgramID: 1},
		{ID: 2, UserID: 5, ProgramID: 1},
		{ID: 3, UserID: 5, ProgramID: 2},
		{ID: 4, Email: " Ana@Mail.com ", ProgramID: 1},
		{ID: 5, Email: "ana@mail.com", ProgramID: 1},
		{ID: 6, Email: "budi@mail.com", ProgramID: 1},
	}

	groups := GroupDuplicates(records)
	require.Len(t, groups, 2)
	assert.Equal(t, "email:ana@mail.com|program:1", groups[0].Key)
	assert.Len(t, groups[0].Records, 2)
	assert.Equal(t, "user:5|program:1", groups[1].Key)
	assert.Len(t, groups[1].Records, 2)
}

func TestGroupDuplicatesLinksUserAndEmailRows(t *testing.T) {
	records := []Record{
		{ID: 1, UserID: 5, Email: "sari@mail.com", ProgramID: 1},
		{ID: 2, Email: "SARI@mail.com ", ProgramID: 1},
		{ID: 3, UserID: 5, Email: "sari.baru@mail.com", ProgramID: 1},
		{ID: 4, Email: "sari@mail.com", ProgramID: 2},
		{ID: 5, UserID: 6, Email: "tono@mail.com", ProgramID: 1},
	}

	groups := GroupDuplicates(records)
	require.Len(t, groups, 1)
	assert.Equal(t, "user:5|program:1", groups[0].Key)
	ids := make([]uint, 0, len(groups[0].Records))
	for _, r := range groups[0].Records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []uint{1, 2, 3}, ids)
}
