package enrollment

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"garuda/models/academy"
)

// Record is the conflict-resolution view of an enrollment row.
type Record struct {
	ID            uint                     `json:"id"`
	UserID        uint                     `json:"user_id"`
	Email         string                   `json:"email"`
	ProgramID     uint                     `json:"program_id"`
	Status        academy.EnrollmentStatus `json:"status"`
	PaymentStatus academy.PaymentStatus    `json:"payment_status"`
	CreatedAt     time.Time                `json:"created_at"`
}

// FromEnrollment projects a stored enrollment onto a Record.
func FromEnrollment(e academy.Enrollment) Record {
	return Record{
		ID:            e.ID,
		UserID:        e.UserID,
		Email:         e.Email,
		ProgramID:     e.ProgramID,
		Status:        e.Status,
		PaymentStatus: e.PaymentStatus,
		CreatedAt:     e.CreatedAt,
	}
}

// StatusScore ranks a record; the first matching rule wins.
func StatusScore(r Record) int {
	switch {
	case r.Status == academy.EnrollmentCompleted:
		return 5
	case r.Status == academy.EnrollmentApproved:
		return 4
	case r.PaymentStatus == academy.PaymentPaid:
		return 3
	case r.Status == academy.EnrollmentPending:
		return 2
	default:
		return 1
	}
}

// Decision is the outcome of resolving one duplicate group.
type Decision struct {
	Keeper *Record `json:"keeper"`
	Delete []uint  `json:"delete"`
}

// Resolve picks the authoritative record of a group and lists the rest for deletion.
// Ordering is score descending, then created_at ascending, then id ascending.
// The input slice is not modified.
func Resolve(records []Record) Decision {
	if len(records) == 0 {
		return Decision{Delete: []uint{}}
	}

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := StatusScore(sorted[i]), StatusScore(sorted[j])
		if si != sj {
			return si > sj
		}
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	keeper := sorted[0]
	losers := make([]uint, 0, len(sorted)-1)
	for _, r := range sorted[1:] {
		if r.ID == keeper.ID {
			continue
		}
		losers = append(losers, r.ID)
	}

	return Decision{Keeper: &keeper, Delete: losers}
}

// DuplicatesToDelete returns the ids of every record except the keeper.
func DuplicatesToDelete(records []Record) []uint {
	if len(records) < 2 {
		return []uint{}
	}
	return Resolve(records).Delete
}

// GroupKey names the participant of a record: the user id when set,
// otherwise the normalized email. The program id is part of the key.
func GroupKey(r Record) string {
	if r.UserID != 0 {
		return fmt.Sprintf("user:%d|program:%d", r.UserID, r.ProgramID)
	}
	return fmt.Sprintf("email:%s|program:%d", normalizeEmail(r.Email), r.ProgramID)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Group is a set of records sharing one participant and program.
type Group struct {
	Key       string   `json:"key"`
	ProgramID uint     `json:"program_id"`
	Records   []Record `json:"records"`
}

// GroupDuplicates buckets records of the same program that share a user id or
// a normalized email, the same identity Enroll checks. A group is keyed by the
// GroupKey of its first record. Only groups holding more than one record are
// returned, sorted by key.
func GroupDuplicates(records []Record) []Group {
	parent := make([]int, len(records))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	owner := make(map[string]int)
	link := func(i int, identity string) {
		if j, ok := owner[identity]; ok {
			a, b := find(i), find(j)
			if a < b {
				parent[b] = a
			} else {
				parent[a] = b
			}
			return
		}
		owner[identity] = i
	}
	for i, r := range records {
		if r.UserID != 0 {
			link(i, fmt.Sprintf("user:%d|program:%d", r.UserID, r.ProgramID))
		}
		if email := normalizeEmail(r.Email); email != "" {
			link(i, fmt.Sprintf("email:%s|program:%d", email, r.ProgramID))
		}
	}

	buckets := make(map[int]*Group)
	for i, r := range records {
		root := find(i)
		g, ok := buckets[root]
		if !ok {
			g = &Group{Key: GroupKey(records[root]), ProgramID: r.ProgramID}
			buckets[root] = g
		}
		g.Records = append(g.Records, r)
	}

	groups := make([]Group, 0)
	for _, g := range buckets {
		if len(g.Records) > 1 {
			groups = append(groups, *g)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}
