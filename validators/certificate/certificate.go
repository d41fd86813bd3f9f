package certificateValidator

import (
	"strings"

	"garuda/validators"

	"github.com/gofiber/fiber/v2"
)

type TemplateRequest struct {
	Name          string                 `json:"name" validate:"required,min=3,max=100"`
	TitleText     string                 `json:"title_text" validate:"required,max=200"`
	BodyText      string                 `json:"body_text" validate:"required,max=5000"`
	BackgroundURL string                 `json:"background_url" validate:"omitempty,url"`
	Layout        map[string]interface{} `json:"layout"`
	IsDefault     bool                   `json:"is_default"`
}

type CertificateRequest struct {
	EnrollmentID uint `json:"enrollment_id" validate:"required"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=500"`
}

func Template() fiber.Handler {
	return validators.Body("validatedTemplate", func(r *TemplateRequest, errs map[string]string) {
		r.Name = strings.TrimSpace(r.Name)
		if !strings.Contains(r.BodyText, "{{name}}") {
			errs["body_text"] = "body_text must contain the {{name}} placeholder!"
		}
	})
}

func Request() fiber.Handler {
	return validators.Body[CertificateRequest]("validatedCertificateRequest", nil)
}

func Reject() fiber.Handler {
	return validators.Body[RejectRequest]("validatedReject", nil)
}
