package scheduler

import (
	"context"
	"time"

	"garuda/config"
	"garuda/models/academy"
	"garuda/services/broadcast"
	"garuda/services/enrollment"
	"garuda/utils"
	"garuda/utils/logger"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

var log = logger.Component("scheduler")

// jobTimeout bounds one run of any job.
const jobTimeout = 10 * time.Minute

func run(name string, job func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		entry := log.WithField("job", name)
		if err := job(ctx); err != nil {
			entry.WithError(err).Error("job failed")
			return
		}
		entry.WithField("took", time.Since(start).String()).Debug("job finished")
	}
}

// ReconcileEnrollments removes duplicate enrollments across all programs.
func ReconcileEnrollments(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		plan, report, err := enrollment.NewReconciler(db).Run(ctx, enrollment.Filter{})
		if err != nil {
			return err
		}
		if plan.Empty() {
			return nil
		}
		entry := log.WithFields(map[string]interface{}{
			"groups":  len(plan.Groups),
			"deleted": len(report.Deleted),
			"failed":  len(report.Failed),
		})
		if len(report.Failed) > 0 {
			entry.Warn("duplicate enrollments partly resolved, will retry next run")
		} else {
			entry.Info("duplicate enrollments resolved")
		}
		return nil
	}
}

// DispatchBroadcasts sends scheduled broadcasts that are due.
func DispatchBroadcasts(db *gorm.DB, mailer utils.Mailer) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := broadcast.NewDispatcher(db, mailer).DispatchDue(ctx, time.Now())
		if n > 0 {
			log.WithField("sent", n).Info("scheduled broadcasts dispatched")
		}
		return err
	}
}

// UpdateClassStatuses moves classes SCHEDULED -> ONGOING on their start date
// and ONGOING -> COMPLETED after their end date. "Today" is the calendar day
// in loc.
func UpdateClassStatuses(db *gorm.DB, loc *time.Location) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return advanceClasses(ctx, db, time.Now(), loc)
	}
}

// calendarDay returns the date of now in loc as UTC midnight, the form class
// dates are stored in.
func calendarDay(now time.Time, loc *time.Location) time.Time {
	d := now.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func advanceClasses(ctx context.Context, db *gorm.DB, now time.Time, loc *time.Location) error {
	db = db.WithContext(ctx)
	today := calendarDay(now, loc)

	started := db.Model(&academy.Class{}).
		Where("status = ? AND start_date <= ? AND is_deleted = ?", academy.ClassScheduled, today, false).
		Update("status", academy.ClassOngoing)
	if started.Error != nil {
		return started.Error
	}

	ended := db.Model(&academy.Class{}).
		Where("status = ? AND end_date < ? AND is_deleted = ?", academy.ClassOngoing, today, false).
		Update("status", academy.ClassCompleted)
	if ended.Error != nil {
		return ended.Error
	}

	if started.RowsAffected > 0 || ended.RowsAffected > 0 {
		log.WithFields(map[string]interface{}{
			"started":   started.RowsAffected,
			"completed": ended.RowsAffected,
		}).Info("class statuses updated")
	}
	return nil
}

// Start registers every job on a cron in Asia/Jakarta time and starts it.
// The caller stops the returned cron on shutdown.
func Start(cfg *config.Config, db *gorm.DB, mailer utils.Mailer) (*cron.Cron, error) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		loc = time.FixedZone("WIB", 7*60*60)
	}

	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	jobs := []struct {
		name string
		spec string
		job  func(ctx context.Context) error
	}{
		{"reconcile-enrollments", cfg.ReconcileCron, ReconcileEnrollments(db)},
		{"dispatch-broadcasts", cfg.BroadcastCron, DispatchBroadcasts(db, mailer)},
		{"class-status", "5 0 * * *", UpdateClassStatuses(db, loc)},
		{"due-reminders", "0 8 * * *", RemindDueContent(db)},
	}
	for _, j := range jobs {
		if _, err := c.AddFunc(j.spec, run(j.name, j.job)); err != nil {
			return nil, err
		}
		log.WithField("job", j.name).Infof("registered (%s)", j.spec)
	}

	c.Start()
	return c, nil
}
