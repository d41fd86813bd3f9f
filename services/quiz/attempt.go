package quiz

import (
	"errors"
	"fmt"
)

type AttemptState string

const (
	StateInProgress AttemptState = "in_progress"
	StateSubmitted  AttemptState = "submitted"
	StateGraded     AttemptState = "graded"
)

var ErrInvalidTransition = errors.New("invalid attempt transition")

// Attempt is one pass through a quiz. Answers can only change while in progress.
type Attempt struct {
	Questions []Question
	State     AttemptState
	Number    int

	answers map[uint]Answer
	result  *Result
}

func NewAttempt(questions []Question) *Attempt {
	return &Attempt{
		Questions: questions,
		State:     StateInProgress,
		Number:    1,
		answers:   map[uint]Answer{},
	}
}

// SetAnswer records or replaces the answer for a.QuestionID.
func (at *Attempt) SetAnswer(a Answer) error {
	if at.State != StateInProgress {
		return fmt.Errorf("%w: cannot answer while %s", ErrInvalidTransition, at.State)
	}
	at.answers[a.QuestionID] = a
	return nil
}

// Answers returns a copy of the current answer set.
func (at *Attempt) Answers() map[uint]Answer {
	out := make(map[uint]Answer, len(at.answers))
	for k, v := range at.answers {
		out[k] = v
	}
	return out
}

// Submit freezes the answers.
func (at *Attempt) Submit() error {
	if at.State != StateInProgress {
		return fmt.Errorf("%w: cannot submit while %s", ErrInvalidTransition, at.State)
	}
	at.State = StateSubmitted
	return nil
}

// Grade scores the frozen answers.
func (at *Attempt) Grade() (Result, error) {
	if at.State != StateSubmitted {
		return Result{}, fmt.Errorf("%w: cannot grade while %s", ErrInvalidTransition, at.State)
	}
	r := Grade(at.Questions, at.answers)
	at.result = &r
	at.State = StateGraded
	return r, nil
}

// Result returns the graded result, if any.
func (at *Attempt) Result() (Result, bool) {
	if at.result == nil {
		return Result{}, false
	}
	return *at.result, true
}

// Retry starts a new attempt with no answers.
func (at *Attempt) Retry() error {
	if at.State != StateGraded {
		return fmt.Errorf("%w: cannot retry while %s", ErrInvalidTransition, at.State)
	}
	at.State = StateInProgress
	at.Number++
	at.answers = map[uint]Answer{}
	at.result = nil
	return nil
}
