package academy

import (
	"time"

	"gorm.io/gorm"
)

// QuizQuestion belongs to a quiz-type LearningContent
type QuizQuestion struct {
	gorm.Model
	ContentID     uint         `json:"content_id" gorm:"index;not null"`
	QuestionText  string       `json:"question_text" gorm:"type:text"`
	QuestionType  string       `json:"question_type" gorm:"size:20"` // multiple_choice, true_false, essay, short_answer
	Points        int          `json:"points" gorm:"default:1"`
	Explanation   *string      `json:"explanation" gorm:"type:text"`
	CorrectAnswer *string      `json:"correct_answer,omitempty"` // true_false only
	OrderIndex    int          `json:"order_index" gorm:"default:0"`
	Options       []QuizOption `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

// QuizOption is a choice of a multiple_choice question
type QuizOption struct {
	gorm.Model
	QuestionID uint   `json:"question_id" gorm:"index;not null"`
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
}

// QuizSubmission is one answered question of one attempt
type QuizSubmission struct {
	gorm.Model
	UserID           uint       `json:"user_id" gorm:"index;not null"`
	ContentID        uint       `json:"content_id" gorm:"index;not null"`
	QuestionID       uint       `json:"question_id" gorm:"index;not null"`
	SelectedOptionID *uint      `json:"selected_option_id"`
	AnswerText       *string    `json:"answer_text" gorm:"type:text"`
	AttemptNumber    int        `json:"attempt_number" gorm:"default:1"`
	IsCorrect        *bool      `json:"is_correct"`
	PointsEarned     *int       `json:"points_earned"`
	GradedBy         *uint      `json:"graded_by"`
	GradedAt         *time.Time `json:"graded_at"`
	Feedback         *string    `json:"feedback" gorm:"type:text"`
}
