package referralController

import (
	"garuda/database"
	"garuda/middleware"
	"garuda/models"

	"github.com/gofiber/fiber/v2"
)

type referralView struct {
	models.Referral
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MyReferrals lists the users the caller referred, with counts per status.
func MyReferrals(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", session.UserID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	var referrals []referralView
	if err := db.Model(&models.Referral{}).
		Select("referrals.*, users.name, users.email").
		Joins("JOIN users ON users.id = referrals.referred_user_id").
		Where("referrals.referrer_id = ?", user.ID).
		Order("referrals.created_at desc").
		Scan(&referrals).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch referrals!", nil)
	}

	counts := map[string]int{
		models.ReferralRegistered: 0,
		models.ReferralEnrolled:   0,
		models.ReferralPaid:       0,
	}
	for _, r := range referrals {
		counts[r.Status]++
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Referrals fetched successfully!", fiber.Map{
		"referral_code": user.ReferralCode,
		"referrals":     referrals,
		"counts":        counts,
	})
}

type leaderboardRow struct {
	ReferrerID uint   `json:"referrer_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Paid       int64  `json:"paid"`
	Total      int64  `json:"total"`
}

// Leaderboard ranks referrers by paid referrals, then by total.
func Leaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 100 {
		limit = 10
	}

	var rows []leaderboardRow
	if err := database.Database.Db.Model(&models.Referral{}).
		Select("referrals.referrer_id, users.name, users.email, "+
			"SUM(CASE WHEN referrals.status = ? THEN 1 ELSE 0 END) AS paid, COUNT(*) AS total", models.ReferralPaid).
		Joins("JOIN users ON users.id = referrals.referrer_id").
		Where("referrals.deleted_at IS NULL").
		Group("referrals.referrer_id, users.name, users.email").
		Order("paid desc, total desc, referrals.referrer_id asc").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch leaderboard!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Leaderboard fetched successfully!", rows)
}
