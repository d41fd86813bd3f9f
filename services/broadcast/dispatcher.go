package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"garuda/models"
	"garuda/models/academy"
	"garuda/utils"
	"garuda/utils/logger"

	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("broadcast not found")
	ErrNotDispatchable = errors.New("broadcast is not in a sendable state")
)

// Dispatcher resolves broadcast audiences and sends through a Mailer.
type Dispatcher struct {
	DB     *gorm.DB
	Mailer utils.Mailer
}

func NewDispatcher(db *gorm.DB, mailer utils.Mailer) *Dispatcher {
	return &Dispatcher{DB: db, Mailer: mailer}
}

var activeStatuses = []academy.EnrollmentStatus{
	academy.EnrollmentPending,
	academy.EnrollmentApproved,
	academy.EnrollmentCompleted,
}

// ResolveAudience returns the unique, lower-cased recipient emails of b.
func (d *Dispatcher) ResolveAudience(ctx context.Context, b models.EmailBroadcast) ([]string, error) {
	db := d.DB.WithContext(ctx)
	var emails []string
	var err error

	switch b.Audience {
	case models.AudienceAll:
		err = db.Model(&models.User{}).Where("is_active = ? AND is_deleted = ?", true, false).Pluck("email", &emails).Error
	case models.AudienceParticipants, models.AudienceTrainers:
		role := models.RoleParticipant
		if b.Audience == models.AudienceTrainers {
			role = models.RoleTrainer
		}
		err = db.Model(&models.User{}).Where("role = ? AND is_active = ? AND is_deleted = ?", role, true, false).Pluck("email", &emails).Error
	case models.AudienceProgram, models.AudienceClass:
		if b.AudienceRefID == nil {
			return nil, fmt.Errorf("audience %s needs a reference id", b.Audience)
		}
		column := "program_id"
		if b.Audience == models.AudienceClass {
			column = "class_id"
		}
		err = db.Model(&academy.Enrollment{}).
			Where(column+" = ? AND status IN ?", *b.AudienceRefID, activeStatuses).
			Pluck("email", &emails).Error
	default:
		return nil, fmt.Errorf("unknown audience %q", b.Audience)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	sort.Strings(out)
	return out, nil
}

// Dispatch sends a DRAFT or SCHEDULED broadcast now. The broadcast ends SENT
// when at least one address was delivered, FAILED otherwise.
func (d *Dispatcher) Dispatch(ctx context.Context, id uint) (models.EmailBroadcast, error) {
	db := d.DB.WithContext(ctx)
	log := logger.Component("broadcast").WithField("broadcast_id", id)

	var b models.EmailBroadcast
	if err := db.First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b, ErrNotFound
		}
		return b, err
	}

	// claim so that a concurrent cron tick cannot send twice
	claim := db.Model(&models.EmailBroadcast{}).
		Where("id = ? AND status IN ?", id, []string{models.BroadcastDraft, models.BroadcastScheduled}).
		Update("status", models.BroadcastSending)
	if claim.Error != nil {
		return b, claim.Error
	}
	if claim.RowsAffected == 0 {
		return b, ErrNotDispatchable
	}

	recipients, err := d.ResolveAudience(ctx, b)
	if err != nil {
		return d.finish(ctx, b, 0, 0, 0, err.Error())
	}
	if len(recipients) == 0 {
		return d.finish(ctx, b, 0, 0, 0, "no recipients")
	}

	sent, failed := 0, 0
	lastError := ""
	for _, email := range recipients {
		row := models.EmailBroadcastRecipient{BroadcastID: b.ID, Email: email, Status: "SENT"}
		if err := d.Mailer.Send(ctx, utils.Message{To: []string{email}, Subject: b.Subject, HTML: b.HTMLBody}); err != nil {
			row.Status = "FAILED"
			row.Error = err.Error()
			lastError = err.Error()
			failed++
		} else {
			sent++
		}
		if err := db.Create(&row).Error; err != nil {
			log.WithError(err).Warn("store recipient failed")
		}
	}

	log.WithFields(map[string]interface{}{"sent": sent, "failed": failed}).Info("broadcast dispatched")
	return d.finish(ctx, b, len(recipients), sent, failed, lastError)
}

func (d *Dispatcher) finish(ctx context.Context, b models.EmailBroadcast, total, sent, failed int, lastError string) (models.EmailBroadcast, error) {
	now := time.Now()
	status := models.BroadcastSent
	if sent == 0 {
		status = models.BroadcastFailed
	}

	updates := map[string]interface{}{
		"status":           status,
		"total_recipients": total,
		"sent_count":       sent,
		"failed_count":     failed,
		"last_error":       lastError,
		"sent_at":          now,
	}
	if err := d.DB.WithContext(ctx).Model(&models.EmailBroadcast{}).Where("id = ?", b.ID).Updates(updates).Error; err != nil {
		return b, err
	}

	b.Status = status
	b.TotalRecipients = total
	b.SentCount = sent
	b.FailedCount = failed
	b.LastError = lastError
	b.SentAt = &now
	return b, nil
}

// DispatchDue sends every SCHEDULED broadcast whose scheduled_at has passed.
func (d *Dispatcher) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	var due []models.EmailBroadcast
	if err := d.DB.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", models.BroadcastScheduled, now).
		Order("scheduled_at asc").
		Find(&due).Error; err != nil {
		return 0, err
	}

	n := 0
	for _, b := range due {
		if _, err := d.Dispatch(ctx, b.ID); err != nil {
			if !errors.Is(err, ErrNotDispatchable) {
				logger.Component("broadcast").WithError(err).WithField("broadcast_id", b.ID).Error("dispatch failed")
			}
			continue
		}
		n++
	}
	return n, nil
}

// RecipientStats counts recipient rows per status.
func (d *Dispatcher) RecipientStats(ctx context.Context, id uint) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	if err := d.DB.WithContext(ctx).Model(&models.EmailBroadcastRecipient{}).
		Select("status, COUNT(*) as count").
		Where("broadcast_id = ?", id).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := map[string]int64{"SENT": 0, "FAILED": 0}
	for _, r := range rows {
		stats[r.Status] = r.Count
	}
	return stats, nil
}
