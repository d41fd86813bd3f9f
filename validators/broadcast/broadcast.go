package broadcastValidator

import (
	"strings"
	"time"

	"garuda/validators"

	"github.com/gofiber/fiber/v2"
)

type BroadcastRequest struct {
	Subject       string  `json:"subject" validate:"required,min=3,max=200"`
	HTMLBody      string  `json:"html_body" validate:"required"`
	Audience      string  `json:"audience" validate:"required,oneof=ALL PARTICIPANTS TRAINERS PROGRAM CLASS"`
	AudienceRefID *uint   `json:"audience_ref_id"`
	ScheduledAt   *string `json:"scheduled_at"`

	Schedule *time.Time `json:"-"`
}

type BroadcastListQuery struct {
	validators.PageQuery
	Status string `query:"status" json:"status" validate:"omitempty,oneof=DRAFT SCHEDULED SENDING SENT FAILED CANCELLED"`
}

// CheckBroadcast validates the audience reference and schedule.
func CheckBroadcast(r *BroadcastRequest, errs map[string]string) {
	r.Subject = strings.TrimSpace(r.Subject)
	if (r.Audience == "PROGRAM" || r.Audience == "CLASS") && (r.AudienceRefID == nil || *r.AudienceRefID == 0) {
		errs["audience_ref_id"] = "audience_ref_id is required for PROGRAM and CLASS audiences!"
	}
	if r.ScheduledAt != nil && strings.TrimSpace(*r.ScheduledAt) != "" {
		at, err := time.Parse(time.RFC3339, strings.TrimSpace(*r.ScheduledAt))
		switch {
		case err != nil:
			errs["scheduled_at"] = "scheduled_at must be an RFC3339 timestamp!"
		case !at.After(time.Now()):
			errs["scheduled_at"] = "scheduled_at must be in the future!"
		default:
			at = at.UTC()
			r.Schedule = &at
		}
	}
}

func Broadcast() fiber.Handler {
	return validators.Body("validatedBroadcast", CheckBroadcast)
}

func BroadcastList() fiber.Handler {
	return validators.Query[BroadcastListQuery]("validatedBroadcastList", nil)
}
