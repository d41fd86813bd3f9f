package quiz

import (
	"math"
	"strings"
)

// PassThreshold is the minimum percentage that passes an attempt.
const PassThreshold = 75

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	Essay          QuestionType = "essay"
	ShortAnswer    QuestionType = "short_answer"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, TrueFalse, Essay, ShortAnswer:
		return true
	}
	return false
}

// Manual reports whether answers of this type need a human grader.
func (t QuestionType) Manual() bool {
	return t == Essay || t == ShortAnswer
}

type Option struct {
	ID         uint   `json:"id"`
	Text       string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct"`
	OrderIndex int    `json:"order_index"`
}

type Question struct {
	ID            uint         `json:"id"`
	ContentID     uint         `json:"content_id"`
	Text          string       `json:"question_text"`
	Type          QuestionType `json:"question_type"`
	Points        int          `json:"points"`
	Explanation   *string      `json:"explanation,omitempty"`
	CorrectAnswer *string      `json:"correct_answer,omitempty"`
	OrderIndex    int          `json:"order_index"`
	Options       []Option     `json:"options,omitempty"`
}

// Answer is a learner's response to one question.
type Answer struct {
	QuestionID       uint    `json:"question_id"`
	SelectedOptionID *uint   `json:"selected_option_id,omitempty"`
	AnswerText       *string `json:"answer_text,omitempty"`
}

type QuestionResult struct {
	Question           Question `json:"question"`
	Answer             *Answer  `json:"answer"`
	IsCorrect          bool     `json:"is_correct"`
	CorrectAnswer      string   `json:"correct_answer"`
	PointsEarned       int      `json:"points_earned"`
	NeedsManualGrading bool     `json:"needs_manual_grading"`
}

type Result struct {
	TotalPoints  int              `json:"total_points"`
	EarnedPoints int              `json:"earned_points"`
	Percentage   int              `json:"percentage"`
	Passed       bool             `json:"passed"`
	Questions    []QuestionResult `json:"questions"`
}

// PendingManual counts answered questions waiting for a human grader.
func (r Result) PendingManual() int {
	n := 0
	for _, q := range r.Questions {
		if q.NeedsManualGrading && q.Answer != nil {
			n++
		}
	}
	return n
}

// Grade scores answers against questions. Answers for question ids outside
// the set are ignored and missing answers score zero.
func Grade(questions []Question, answers map[uint]Answer) Result {
	result := Result{Questions: make([]QuestionResult, 0, len(questions))}

	for _, q := range questions {
		result.TotalPoints += q.Points

		qr := QuestionResult{Question: q, CorrectAnswer: correctAnswerText(q)}
		if a, ok := answers[q.ID]; ok {
			a := a
			qr.Answer = &a
		}

		switch {
		case q.Type.Manual():
			qr.NeedsManualGrading = true
		case qr.Answer != nil:
			qr.IsCorrect = isCorrect(q, *qr.Answer)
		}

		if qr.IsCorrect {
			qr.PointsEarned = q.Points
			result.EarnedPoints += q.Points
		}
		result.Questions = append(result.Questions, qr)
	}

	result.Percentage = Percentage(result.EarnedPoints, result.TotalPoints)
	result.Passed = result.Percentage >= PassThreshold
	return result
}

// Percentage is round(earned/total*100), or 0 when total is not positive.
func Percentage(earned, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(earned) / float64(total) * 100))
}

func isCorrect(q Question, a Answer) bool {
	switch q.Type {
	case MultipleChoice:
		if a.SelectedOptionID == nil {
			return false
		}
		for _, o := range q.Options {
			if o.ID == *a.SelectedOptionID {
				return o.IsCorrect
			}
		}
		return false
	case TrueFalse:
		if a.AnswerText == nil || q.CorrectAnswer == nil {
			return false
		}
		return *a.AnswerText == *q.CorrectAnswer
	}
	return false
}

func correctAnswerText(q Question) string {
	switch q.Type {
	case MultipleChoice:
		var texts []string
		for _, o := range q.Options {
			if o.IsCorrect {
				texts = append(texts, o.Text)
			}
		}
		return strings.Join(texts, ", ")
	case TrueFalse:
		if q.CorrectAnswer != nil {
			return *q.CorrectAnswer
		}
	}
	return ""
}
