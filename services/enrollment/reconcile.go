package enrollment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"garuda/models/academy"
	"garuda/utils/logger"

	"gorm.io/gorm"
)

// ErrNoDatabase is returned when a Reconciler has no database handle.
var ErrNoDatabase = errors.New("reconciler has no database")

// Filter narrows a scan. Zero values mean "all".
type Filter struct {
	Email     string
	ProgramID uint
}

// PlannedGroup is one duplicate group together with its resolution.
type PlannedGroup struct {
	Group    Group    `json:"group"`
	Decision Decision `json:"decision"`
}

// Plan is the set of deletions a scan proposes.
type Plan struct {
	Groups []PlannedGroup `json:"groups"`
}

// DeleteIDs flattens the plan into the ids to delete.
func (p Plan) DeleteIDs() []uint {
	ids := make([]uint, 0)
	for _, g := range p.Groups {
		ids = append(ids, g.Decision.Delete...)
	}
	return ids
}

// KeeperIDs lists the record kept in every group.
func (p Plan) KeeperIDs() []uint {
	ids := make([]uint, 0, len(p.Groups))
	for _, g := range p.Groups {
		if g.Decision.Keeper != nil {
			ids = append(ids, g.Decision.Keeper.ID)
		}
	}
	return ids
}

// Empty reports whether the plan deletes nothing.
func (p Plan) Empty() bool {
	return len(p.DeleteIDs()) == 0
}

// Report is the outcome of applying a plan. Failed maps ids to the error text.
type Report struct {
	Deleted []uint          `json:"deleted"`
	Failed  map[uint]string `json:"failed"`
	Kept    []uint          `json:"kept"`
}

// Partial reports whether some, but not all, deletions failed.
func (r Report) Partial() bool {
	return len(r.Failed) > 0 && len(r.Deleted) > 0
}

// Reconciler fetches enrollments, resolves duplicate groups and deletes losers.
type Reconciler struct {
	DB *gorm.DB
}

func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{DB: db}
}

// Scan loads enrollments matching f and resolves every duplicate group.
// A fetch error aborts the scan before anything is resolved.
func (r *Reconciler) Scan(ctx context.Context, f Filter) (Plan, error) {
	if r.DB == nil {
		return Plan{}, ErrNoDatabase
	}

	query := r.DB.WithContext(ctx).Model(&academy.Enrollment{})
	if email := strings.ToLower(strings.TrimSpace(f.Email)); email != "" {
		query = query.Where("LOWER(email) = ?", email)
	}
	if f.ProgramID != 0 {
		query = query.Where("program_id = ?", f.ProgramID)
	}

	var rows []academy.Enrollment
	if err := query.Order("id asc").Find(&rows).Error; err != nil {
		return Plan{}, fmt.Errorf("fetch enrollments: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, FromEnrollment(row))
	}

	plan := Plan{Groups: []PlannedGroup{}}
	for _, g := range GroupDuplicates(records) {
		plan.Groups = append(plan.Groups, PlannedGroup{Group: g, Decision: Resolve(g.Records)})
	}
	return plan, nil
}

// Apply deletes every loser of the plan one by one. Failures are collected
// and do not stop the remaining deletions; nothing is rolled back.
func (r *Reconciler) Apply(ctx context.Context, plan Plan) Report {
	report := Report{
		Deleted: []uint{},
		Failed:  map[uint]string{},
		Kept:    plan.KeeperIDs(),
	}
	if r.DB == nil {
		for _, id := range plan.DeleteIDs() {
			report.Failed[id] = ErrNoDatabase.Error()
		}
		return report
	}

	kept := make(map[uint]bool, len(report.Kept))
	for _, id := range report.Kept {
		kept[id] = true
	}

	log := logger.Component("reconcile")
	for _, id := range plan.DeleteIDs() {
		if kept[id] {
			report.Failed[id] = "refusing to delete a keeper"
			continue
		}

		res := r.DB.WithContext(ctx).Unscoped().Delete(&academy.Enrollment{}, id)
		switch {
		case res.Error != nil:
			report.Failed[id] = res.Error.Error()
			log.WithError(res.Error).WithField("enrollment_id", id).Warn("delete duplicate failed")
		case res.RowsAffected == 0:
			report.Failed[id] = "enrollment not found"
		default:
			report.Deleted = append(report.Deleted, id)
		}
	}

	log.WithFields(map[string]interface{}{
		"deleted": len(report.Deleted),
		"failed":  len(report.Failed),
		"groups":  len(plan.Groups),
	}).Info("duplicate enrollments reconciled")
	return report
}

// Run scans and applies in one step.
func (r *Reconciler) Run(ctx context.Context, f Filter) (Plan, Report, error) {
	plan, err := r.Scan(ctx, f)
	if err != nil {
		return Plan{}, Report{}, err
	}
	return plan, r.Apply(ctx, plan), nil
}
