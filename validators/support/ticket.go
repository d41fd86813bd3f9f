package supportValidators

import (
	"strings"

	"garuda/validators"

	"github.com/gofiber/fiber/v2"
)

type TicketRequest struct {
	Title    string `json:"title" validate:"required,min=3,max=100,excludesall=<>{}"`
	Message  string `json:"message" validate:"required,max=5000"`
	Priority string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Category string `json:"category" validate:"omitempty,oneof=GENERAL TECHNICAL BILLING ACADEMIC"`
}

type ReplyRequest struct {
	Message string `json:"message" validate:"required,max=5000"`
}

type TicketListQuery struct {
	validators.PageQuery
	Status string `query:"status" json:"status" validate:"omitempty,oneof=OPEN PENDING CLOSED"`
}

func CreateSupportTicket() fiber.Handler {
	return validators.Body("validatedSupportTicket", func(r *TicketRequest, errs map[string]string) {
		r.Title = strings.TrimSpace(r.Title)
		r.Message = strings.TrimSpace(r.Message)
		r.Priority = strings.ToUpper(r.Priority)
		r.Category = strings.ToUpper(r.Category)
		if r.Priority == "" {
			r.Priority = "MEDIUM"
		}
		if r.Category == "" {
			r.Category = "GENERAL"
		}
		if r.Message == "" {
			errs["message"] = "message is required!"
		}
	})
}

func ReplyTicket() fiber.Handler {
	return validators.Body("validatedTicketReply", func(r *ReplyRequest, errs map[string]string) {
		r.Message = strings.TrimSpace(r.Message)
		if r.Message == "" {
			errs["message"] = "message is required!"
		}
	})
}

func TicketList() fiber.Handler {
	return validators.Query[TicketListQuery]("validatedTicketList", nil)
}
