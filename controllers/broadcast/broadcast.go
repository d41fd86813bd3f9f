package broadcastController

import (
	"errors"

	"garuda/database"
	"garuda/middleware"
	"garuda/models"
	"garuda/services/broadcast"
	"garuda/utils"
	"garuda/utils/logger"
	broadcastValidator "garuda/validators/broadcast"

	"github.com/gofiber/fiber/v2"
)

var log = logger.Component("broadcast")

func dispatcher() *broadcast.Dispatcher {
	return broadcast.NewDispatcher(database.Database.Db, utils.DefaultMailer)
}

func findBroadcast(c *fiber.Ctx) (models.EmailBroadcast, bool) {
	var b models.EmailBroadcast
	if err := database.Database.Db.First(&b, c.Locals("id").(uint)).Error; err != nil {
		_ = middleware.JsonResponse(c, fiber.StatusNotFound, false, "Broadcast not found!", nil)
		return b, false
	}
	return b, true
}

func editable(b models.EmailBroadcast) bool {
	return b.Status == models.BroadcastDraft || b.Status == models.BroadcastScheduled
}

// CreateBroadcast stores a DRAFT, or a SCHEDULED broadcast when scheduled_at is set.
func CreateBroadcast(c *fiber.Ctx) error {
	reqData := c.Locals("validatedBroadcast").(*broadcastValidator.BroadcastRequest)

	b := models.EmailBroadcast{
		Subject:       reqData.Subject,
		HTMLBody:      reqData.HTMLBody,
		Audience:      reqData.Audience,
		AudienceRefID: reqData.AudienceRefID,
		ScheduledAt:   reqData.Schedule,
		Status:        models.BroadcastDraft,
		CreatedBy:     middleware.CurrentSession(c).UserID,
	}
	if reqData.Schedule != nil {
		b.Status = models.BroadcastScheduled
	}
	if err := database.Database.Db.Create(&b).Error; err != nil {
		log.Errorf("create broadcast: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create broadcast!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Broadcast created successfully!", b)
}

func UpdateBroadcast(c *fiber.Ctx) error {
	reqData := c.Locals("validatedBroadcast").(*broadcastValidator.BroadcastRequest)
	b, ok := findBroadcast(c)
	if !ok {
		return nil
	}
	if !editable(b) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Only draft or scheduled broadcasts can be edited!", nil)
	}

	status := models.BroadcastDraft
	if reqData.Schedule != nil {
		status = models.BroadcastScheduled
	}
	res := database.Database.Db.Model(&models.EmailBroadcast{}).
		Where("id = ? AND status IN ?", b.ID, []string{models.BroadcastDraft, models.BroadcastScheduled}).
		Updates(map[string]interface{}{
			"subject":         reqData.Subject,
			"html_body":       reqData.HTMLBody,
			"audience":        reqData.Audience,
			"audience_ref_id": reqData.AudienceRefID,
			"scheduled_at":    reqData.Schedule,
			"status":          status,
		})
	if res.Error != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update broadcast!", nil)
	}
	if res.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Broadcast is already being sent!", nil)
	}
	database.Database.Db.First(&b, b.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Broadcast updated successfully!", b)
}

func CancelBroadcast(c *fiber.Ctx) error {
	b, ok := findBroadcast(c)
	if !ok {
		return nil
	}

	res := database.Database.Db.Model(&models.EmailBroadcast{}).
		Where("id = ? AND status IN ?", b.ID, []string{models.BroadcastDraft, models.BroadcastScheduled}).
		Update("status", models.BroadcastCancelled)
	if res.Error != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to cancel broadcast!", nil)
	}
	if res.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Only draft or scheduled broadcasts can be cancelled!", nil)
	}
	b.Status = models.BroadcastCancelled

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Broadcast cancelled.", b)
}

func ListBroadcasts(c *fiber.Ctx) error {
	reqData := c.Locals("validatedBroadcastList").(*broadcastValidator.BroadcastListQuery)
	page := utils.NewPagination(reqData.Page, reqData.Limit)

	db := database.Database.Db.Model(&models.EmailBroadcast{})
	if reqData.Status != "" {
		db = db.Where("status = ?", reqData.Status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch broadcasts!", nil)
	}

	var broadcasts []models.EmailBroadcast
	if err := db.Order("created_at desc").Offset(page.Offset()).Limit(page.Limit).Find(&broadcasts).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch broadcasts!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Broadcasts fetched successfully!", fiber.Map{
		"broadcasts": broadcasts,
		"pagination": page.Meta(total),
	})
}

func GetBroadcast(c *fiber.Ctx) error {
	b, ok := findBroadcast(c)
	if !ok {
		return nil
	}

	stats, err := dispatcher().RecipientStats(c.UserContext(), b.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch recipient stats!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Broadcast fetched successfully!", fiber.Map{
		"broadcast":       b,
		"recipient_stats": stats,
	})
}

// SendBroadcast dispatches a draft or scheduled broadcast immediately.
func SendBroadcast(c *fiber.Ctx) error {
	b, err := dispatcher().Dispatch(c.UserContext(), c.Locals("id").(uint))
	switch {
	case errors.Is(err, broadcast.ErrNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Broadcast not found!", nil)
	case errors.Is(err, broadcast.ErrNotDispatchable):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Broadcast was already sent or cancelled!", nil)
	case err != nil:
		log.Errorf("send broadcast: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to send broadcast!", nil)
	}

	if b.Status == models.BroadcastFailed {
		return middleware.JsonResponse(c, fiber.StatusOK, false, "Broadcast failed: "+b.LastError, b)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Broadcast sent.", b)
}
