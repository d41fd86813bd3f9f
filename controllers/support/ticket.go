package supportControllers

import (
	"time"

	"garuda/database"
	"garuda/middleware"
	"garuda/models"
	"garuda/utils"
	supportValidators "garuda/validators/support"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

func newMessage(sender string, userID uint, text string) models.TicketMessage {
	return models.TicketMessage{
		Sender: sender,
		UserID: userID,
		Text:   text,
		Time:   time.Now().UTC().Format(time.RFC3339),
	}
}

func senderOf(session *middleware.Session) string {
	if session.Role == models.RoleAdmin {
		return "admin"
	}
	return "user"
}

func CreateSupportTicket(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	reqData := c.Locals("validatedSupportTicket").(*supportValidators.TicketRequest)

	ticket := models.SupportTicket{
		UserID:   session.UserID,
		Title:    reqData.Title,
		Category: reqData.Category,
		Priority: reqData.Priority,
		Status:   models.TicketOpen,
		Messages: datatypes.NewJSONSlice([]models.TicketMessage{newMessage("user", session.UserID, reqData.Message)}),
	}

	if err := database.Database.Db.Create(&ticket).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create support ticket!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Support ticket created successfully!", ticket)
}

// findTicket loads a ticket the caller may see: admins see all, users their own.
func findTicket(c *fiber.Ctx) (models.SupportTicket, bool) {
	session := middleware.CurrentSession(c)

	db := database.Database.Db.Where("id = ? AND is_deleted = ?", c.Locals("id").(uint), false)
	if session.Role != models.RoleAdmin {
		db = db.Where("user_id = ?", session.UserID)
	}

	var ticket models.SupportTicket
	if err := db.First(&ticket).Error; err != nil {
		_ = middleware.JsonResponse(c, fiber.StatusNotFound, false, "Ticket not found!", nil)
		return ticket, false
	}
	return ticket, true
}

func listTickets(c *fiber.Ctx, userID uint) error {
	reqData := c.Locals("validatedTicketList").(*supportValidators.TicketListQuery)
	page := utils.NewPagination(reqData.Page, reqData.Limit)

	db := database.Database.Db.Model(&models.SupportTicket{}).Where("is_deleted = ?", false)
	if userID != 0 {
		db = db.Where("user_id = ?", userID)
	}
	if reqData.Status != "" {
		db = db.Where("status = ?", reqData.Status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch tickets!", nil)
	}

	var tickets []models.SupportTicket
	if err := db.Order("updated_at desc").Offset(page.Offset()).Limit(page.Limit).Find(&tickets).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch tickets!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Tickets fetched successfully!", fiber.Map{
		"tickets":    tickets,
		"pagination": page.Meta(total),
	})
}

func TicketList(c *fiber.Ctx) error {
	return listTickets(c, middleware.CurrentSession(c).UserID)
}

func AdminTicketList(c *fiber.Ctx) error {
	return listTickets(c, 0)
}

func GetTicket(c *fiber.Ctx) error {
	ticket, ok := findTicket(c)
	if !ok {
		return nil
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Ticket fetched successfully!", ticket)
}

// ReplyTicket appends to the conversation. An admin reply moves the ticket
// to PENDING, a user reply reopens it.
func ReplyTicket(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	reqData := c.Locals("validatedTicketReply").(*supportValidators.ReplyRequest)

	ticket, ok := findTicket(c)
	if !ok {
		return nil
	}
	if ticket.Status == models.TicketClosed {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Ticket is closed!", nil)
	}

	sender := senderOf(session)
	messages := append([]models.TicketMessage(ticket.Messages), newMessage(sender, session.UserID, reqData.Message))
	status := models.TicketOpen
	if sender == "admin" {
		status = models.TicketPending
	}

	if err := database.Database.Db.Model(&ticket).Updates(map[string]interface{}{
		"messages": datatypes.NewJSONSlice(messages),
		"status":   status,
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reply to ticket!", nil)
	}
	ticket.Messages = datatypes.NewJSONSlice(messages)
	ticket.Status = status

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Reply added successfully!", ticket)
}

func CloseTicket(c *fiber.Ctx) error {
	ticket, ok := findTicket(c)
	if !ok {
		return nil
	}
	if ticket.Status == models.TicketClosed {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Ticket is already closed.", ticket)
	}

	now := time.Now()
	if err := database.Database.Db.Model(&ticket).Updates(map[string]interface{}{
		"status":    models.TicketClosed,
		"closed_at": now,
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to close ticket!", nil)
	}
	ticket.Status = models.TicketClosed
	ticket.ClosedAt = &now

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Ticket closed successfully!", ticket)
}

// TicketStats counts tickets per status.
func TicketStats(c *fiber.Ctx) error {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	if err := database.Database.Db.Model(&models.SupportTicket{}).
		Select("status, COUNT(*) as count").
		Where("is_deleted = ?", false).
		Group("status").
		Scan(&rows).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch stats!", nil)
	}

	stats := map[string]int64{models.TicketOpen: 0, models.TicketPending: 0, models.TicketClosed: 0}
	var total int64
	for _, r := range rows {
		stats[r.Status] = r.Count
		total += r.Count
	}
	stats["TOTAL"] = total

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Ticket stats fetched successfully!", stats)
}
