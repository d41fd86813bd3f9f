package programValidator

import (
	"strings"
	"time"

	"garuda/validators"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

type ProgramRequest struct {
	Title         string `json:"title" validate:"required,min=3,max=150"`
	Description   string `json:"description" validate:"max=5000"`
	Category      string `json:"category" validate:"max=100"`
	Price         int64  `json:"price" validate:"gte=0"`
	DurationHours int    `json:"duration_hours" validate:"gte=0"`
	ThumbnailURL  string `json:"thumbnail_url" validate:"omitempty,url"`
}

type ProgramListQuery struct {
	validators.PageQuery
	Search   string `query:"search" json:"search" validate:"max=100"`
	Category string `query:"category" json:"category" validate:"max=100"`
	Status   string `query:"status" json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
}

type ClassRequest struct {
	Name         string `json:"name" validate:"required,min=3,max=150"`
	StartDate    string `json:"start_date" validate:"required"`
	EndDate      string `json:"end_date" validate:"required"`
	ScheduleDays string `json:"schedule_days" validate:"max=50"`
	StartTime    string `json:"start_time" validate:"required,hhmm"`
	EndTime      string `json:"end_time" validate:"required,hhmm"`
	Location     string `json:"location" validate:"max=255"`
	Mode         string `json:"mode" validate:"omitempty,oneof=ONLINE OFFLINE HYBRID"`
	Capacity     int    `json:"capacity" validate:"gte=0"`

	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

type AssignTrainerRequest struct {
	TrainerID uint   `json:"trainer_id" validate:"required"`
	Role      string `json:"role" validate:"omitempty,oneof=LEAD ASSISTANT"`
}

func trimProgram(r *ProgramRequest, _ map[string]string) {
	r.Title = strings.TrimSpace(r.Title)
	r.Category = strings.TrimSpace(r.Category)
	r.Description = strings.TrimSpace(r.Description)
}

func Program() fiber.Handler {
	return validators.Body("validatedProgram", trimProgram)
}

func ProgramList() fiber.Handler {
	return validators.Query[ProgramListQuery]("validatedProgramList", nil)
}

// CheckClass enforces the date and time ordering of a class.
func CheckClass(r *ClassRequest, errs map[string]string) {
	r.Name = strings.TrimSpace(r.Name)
	r.ScheduleDays = strings.ToUpper(strings.ReplaceAll(r.ScheduleDays, " ", ""))
	if r.Mode == "" {
		r.Mode = "ONLINE"
	}

	var err error
	if r.Start, err = time.Parse(dateLayout, r.StartDate); err != nil && r.StartDate != "" {
		errs["start_date"] = "start_date must use YYYY-MM-DD format!"
	}
	if r.End, err = time.Parse(dateLayout, r.EndDate); err != nil && r.EndDate != "" {
		errs["end_date"] = "end_date must use YYYY-MM-DD format!"
	}
	if _, bad := errs["start_date"]; !bad {
		if _, bad := errs["end_date"]; !bad && r.End.Before(r.Start) {
			errs["end_date"] = "end_date must not be before start_date!"
		}
	}

	start, okStart := validators.ParseHHMM(r.StartTime)
	end, okEnd := validators.ParseHHMM(r.EndTime)
	if okStart && okEnd && end <= start {
		errs["end_time"] = "end_time must be after start_time!"
	}
}

func Class() fiber.Handler {
	return validators.Body("validatedClass", CheckClass)
}

func AssignTrainer() fiber.Handler {
	return validators.Body[AssignTrainerRequest]("validatedAssignment", nil)
}
