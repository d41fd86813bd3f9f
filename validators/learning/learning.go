package learningValidator

import (
	"strings"
	"time"

	"garuda/validators"

	"github.com/gofiber/fiber/v2"
)

type ContentRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	ContentType string  `json:"content_type" validate:"required,oneof=video text quiz document assignment"`
	Body        string  `json:"body"`
	VideoURL    string  `json:"video_url" validate:"omitempty,url"`
	DocumentURL string  `json:"document_url" validate:"omitempty,url"`
	OrderIndex  int     `json:"order_index" validate:"gte=0"`
	DueDate     *string `json:"due_date"`
	IsPublished bool    `json:"is_published"`

	Due *time.Time `json:"-"`
}

type PublishRequest struct {
	IsPublished bool `json:"is_published"`
}

type OptionRequest struct {
	OptionText string `json:"option_text" validate:"required,max=500"`
	IsCorrect  bool   `json:"is_correct"`
	OrderIndex int    `json:"order_index" validate:"gte=0"`
}

type QuestionRequest struct {
	QuestionText  string          `json:"question_text" validate:"required,min=3"`
	QuestionType  string          `json:"question_type" validate:"required,oneof=multiple_choice true_false essay short_answer"`
	Points        int             `json:"points" validate:"required,gt=0"`
	Explanation   *string         `json:"explanation"`
	CorrectAnswer *string         `json:"correct_answer"`
	OrderIndex    int             `json:"order_index" validate:"gte=0"`
	Options       []OptionRequest `json:"options" validate:"dive"`
}

type AnswerRequest struct {
	QuestionID       uint    `json:"question_id" validate:"required"`
	SelectedOptionID *uint   `json:"selected_option_id"`
	AnswerText       *string `json:"answer_text"`
}

type SubmitQuizRequest struct {
	Answers []AnswerRequest `json:"answers" validate:"dive"`
}

type GradeRequest struct {
	Points   int    `json:"points" validate:"gte=0"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

func checkContent(r *ContentRequest, errs map[string]string) {
	r.Title = strings.TrimSpace(r.Title)
	if r.DueDate != nil && strings.TrimSpace(*r.DueDate) != "" {
		due, err := time.Parse(time.RFC3339, strings.TrimSpace(*r.DueDate))
		if err != nil {
			errs["due_date"] = "due_date must be an RFC3339 timestamp!"
		} else {
			r.Due = &due
		}
	}
	switch r.ContentType {
	case "video":
		if r.VideoURL == "" {
			errs["video_url"] = "video_url is required for video content!"
		}
	case "document":
		if r.DocumentURL == "" {
			errs["document_url"] = "document_url is required for document content!"
		}
	}
}

func Content() fiber.Handler {
	return validators.Body("validatedContent", checkContent)
}

func Publish() fiber.Handler {
	return validators.Body[PublishRequest]("validatedPublish", nil)
}

// CheckQuestion enforces the authoring rules of each question type.
func CheckQuestion(r *QuestionRequest, errs map[string]string) {
	switch r.QuestionType {
	case "multiple_choice":
		if len(r.Options) < 2 {
			errs["options"] = "multiple_choice needs at least 2 options!"
			return
		}
		correct := 0
		for _, o := range r.Options {
			if o.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			errs["options"] = "multiple_choice needs exactly one correct option!"
		}
		r.CorrectAnswer = nil
	case "true_false":
		if r.CorrectAnswer == nil || strings.TrimSpace(*r.CorrectAnswer) == "" {
			errs["correct_answer"] = "correct_answer is required for true_false!"
		}
		if len(r.Options) > 0 {
			errs["options"] = "true_false questions do not take options!"
		}
	case "essay", "short_answer":
		if len(r.Options) > 0 {
			errs["options"] = r.QuestionType + " questions do not take options!"
		}
		r.CorrectAnswer = nil
	}
}

func Question() fiber.Handler {
	return validators.Body("validatedQuestion", CheckQuestion)
}

func SubmitQuiz() fiber.Handler {
	return validators.Body("validatedQuizSubmit", func(r *SubmitQuizRequest, errs map[string]string) {
		seen := map[uint]bool{}
		for _, a := range r.Answers {
			if seen[a.QuestionID] {
				errs["answers"] = "each question may be answered once!"
				return
			}
			seen[a.QuestionID] = true
		}
	})
}

func Grade() fiber.Handler {
	return validators.Body[GradeRequest]("validatedGrade", nil)
}
