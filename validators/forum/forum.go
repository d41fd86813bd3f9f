package forumValidator

import (
	"strings"

	"garuda/validators"

	"github.com/gofiber/fiber/v2"
)

type ThreadRequest struct {
	Title string `json:"title" validate:"required,min=3,max=200"`
	Body  string `json:"body" validate:"required,max=10000"`
}

type ReplyRequest struct {
	Body string `json:"body" validate:"required,max=10000"`
}

type ModerateRequest struct {
	IsPinned *bool `json:"is_pinned"`
	IsLocked *bool `json:"is_locked"`
}

func Thread() fiber.Handler {
	return validators.Body("validatedThread", func(r *ThreadRequest, errs map[string]string) {
		r.Title = strings.TrimSpace(r.Title)
		r.Body = strings.TrimSpace(r.Body)
		if r.Body == "" {
			errs["body"] = "body is required!"
		}
	})
}

func Reply() fiber.Handler {
	return validators.Body("validatedReply", func(r *ReplyRequest, errs map[string]string) {
		r.Body = strings.TrimSpace(r.Body)
		if r.Body == "" {
			errs["body"] = "body is required!"
		}
	})
}

func Moderate() fiber.Handler {
	return validators.Body("validatedModerate", func(r *ModerateRequest, errs map[string]string) {
		if r.IsPinned == nil && r.IsLocked == nil {
			errs["body"] = "is_pinned or is_locked is required!"
		}
	})
}
