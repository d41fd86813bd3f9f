package dashboardController

import (
	"context"
	"time"

	"garuda/database"
	"garuda/middleware"
	"garuda/models"
	"garuda/models/academy"
	"garuda/services/quiz"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// Stats is the admin dashboard summary.
type Stats struct {
	Programs             int64            `json:"programs"`
	Classes              int64            `json:"classes"`
	Participants         int64            `json:"participants"`
	Trainers             int64            `json:"trainers"`
	Enrollments          int64            `json:"enrollments"`
	EnrollmentsByStatus  map[string]int64 `json:"enrollments_by_status"`
	EnrollmentsByPayment map[string]int64 `json:"enrollments_by_payment"`
	EnrollmentsToday     int64            `json:"enrollments_today"`
	EnrollmentsThisMonth int64            `json:"enrollments_this_month"`
	RevenueThisMonth     int64            `json:"revenue_this_month"`
	OpenTickets          int64            `json:"open_tickets"`
	PendingCertificates  int64            `json:"pending_certificates"`
	PendingGrading       int64            `json:"pending_grading"`
}

type groupCount struct {
	GroupKey string
	Count    int64
}

func countBy(db *gorm.DB, column string) (map[string]int64, error) {
	var rows []groupCount
	if err := db.Model(&academy.Enrollment{}).
		Select(column + " AS group_key, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.GroupKey] = r.Count
	}
	return out, nil
}

// Collect computes the dashboard figures as of at.
func Collect(ctx context.Context, db *gorm.DB, at time.Time) (Stats, error) {
	db = db.WithContext(ctx)
	var s Stats

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&s.Programs, db.Model(&academy.Program{}).Where("is_deleted = ?", false)},
		{&s.Classes, db.Model(&academy.Class{}).Where("is_deleted = ?", false)},
		{&s.Participants, db.Model(&models.User{}).Where("role = ? AND is_deleted = ?", models.RoleParticipant, false)},
		{&s.Trainers, db.Model(&models.User{}).Where("role = ? AND is_deleted = ?", models.RoleTrainer, false)},
		{&s.Enrollments, db.Model(&academy.Enrollment{})},
		{&s.EnrollmentsToday, db.Model(&academy.Enrollment{}).Where("created_at >= ?", now.With(at).BeginningOfDay())},
		{&s.EnrollmentsThisMonth, db.Model(&academy.Enrollment{}).Where("created_at >= ?", now.With(at).BeginningOfMonth())},
		{&s.OpenTickets, db.Model(&models.SupportTicket{}).Where("status <> ? AND is_deleted = ?", models.TicketClosed, false)},
		{&s.PendingCertificates, db.Model(&academy.CertificateRequest{}).Where("status = ?", academy.CertificateRequestPending)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return s, err
		}
	}

	var err error
	if s.EnrollmentsByStatus, err = countBy(db, "status"); err != nil {
		return s, err
	}
	if s.EnrollmentsByPayment, err = countBy(db, "payment_status"); err != nil {
		return s, err
	}

	// revenue counts money collected on enrollments updated this month
	if err := db.Model(&academy.Enrollment{}).
		Select("COALESCE(SUM(paid_amount), 0)").
		Where("payment_status IN ? AND updated_at >= ?", []academy.PaymentStatus{academy.PaymentPaid, academy.PaymentPartial}, now.With(at).BeginningOfMonth()).
		Scan(&s.RevenueThisMonth).Error; err != nil {
		return s, err
	}

	if s.PendingGrading, err = quiz.NewService(db, nil).CountPendingManual(ctx, 0); err != nil {
		return s, err
	}
	return s, nil
}

func Dashboard(c *fiber.Ctx) error {
	stats, err := Collect(c.UserContext(), database.Database.Db, time.Now())
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch dashboard!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched successfully!", stats)
}
