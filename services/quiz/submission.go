package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"garuda/models/academy"
	"garuda/utils/logger"

	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrNoQuestions     = errors.New("quiz has no questions")
	ErrNotManual       = errors.New("question is graded automatically")
	ErrInvalidQuestion = errors.New("invalid question data")
)

// ProgressMarker records that a learner completed a content item.
type ProgressMarker interface {
	MarkComplete(ctx context.Context, userID, contentID, classID uint) error
}

// Service persists attempts and drives the grader.
type Service struct {
	DB       *gorm.DB
	Progress ProgressMarker
}

func NewService(db *gorm.DB, progress ProgressMarker) *Service {
	return &Service{DB: db, Progress: progress}
}

type SubmitInput struct {
	UserID    uint
	ContentID uint
	ClassID   uint
	Answers   []Answer
}

type SubmitOutcome struct {
	Result        Result `json:"result"`
	AttemptNumber int    `json:"attempt_number"`
	Completed     bool   `json:"completed"`
}

type ManualGradeInput struct {
	SubmissionID uint
	GraderID     uint
	Points       int
	Feedback     string
}

// AttemptSummary aggregates the stored rows of one attempt.
type AttemptSummary struct {
	AttemptNumber int       `json:"attempt_number"`
	TotalPoints   int       `json:"total_points"`
	EarnedPoints  int       `json:"earned_points"`
	Percentage    int       `json:"percentage"`
	Passed        bool      `json:"passed"`
	PendingManual int       `json:"pending_manual"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// FromModel converts a stored question. Unknown types are rejected.
func FromModel(m academy.QuizQuestion) (Question, error) {
	qt := QuestionType(m.QuestionType)
	if !qt.Valid() {
		return Question{}, fmt.Errorf("%w: question %d has type %q", ErrInvalidQuestion, m.ID, m.QuestionType)
	}

	q := Question{
		ID:            m.ID,
		ContentID:     m.ContentID,
		Text:          m.QuestionText,
		Type:          qt,
		Points:        m.Points,
		Explanation:   m.Explanation,
		CorrectAnswer: m.CorrectAnswer,
		OrderIndex:    m.OrderIndex,
	}
	for _, o := range m.Options {
		q.Options = append(q.Options, Option{ID: o.ID, Text: o.OptionText, IsCorrect: o.IsCorrect, OrderIndex: o.OrderIndex})
	}
	return q, nil
}

// LoadQuestions fetches the questions of a content item ordered by order_index then id.
func (s *Service) LoadQuestions(ctx context.Context, contentID uint) ([]Question, error) {
	var rows []academy.QuizQuestion
	err := s.DB.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index asc, id asc")
		}).
		Where("content_id = ?", contentID).
		Order("order_index asc, id asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	questions := make([]Question, 0, len(rows))
	for _, row := range rows {
		q, err := FromModel(row)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// Submit grades one attempt, stores a row per answered question and, on a
// pass, marks the content complete.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (SubmitOutcome, error) {
	questions, err := s.LoadQuestions(ctx, in.ContentID)
	if err != nil {
		return SubmitOutcome{}, err
	}
	if len(questions) == 0 {
		return SubmitOutcome{}, ErrNoQuestions
	}

	attempt := NewAttempt(questions)
	for _, a := range in.Answers {
		if err := attempt.SetAnswer(a); err != nil {
			return SubmitOutcome{}, err
		}
	}
	if err := attempt.Submit(); err != nil {
		return SubmitOutcome{}, err
	}
	result, err := attempt.Grade()
	if err != nil {
		return SubmitOutcome{}, err
	}

	var outcome SubmitOutcome
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&academy.QuizSubmission{}).
			Where("user_id = ? AND content_id = ?", in.UserID, in.ContentID).
			Select("COALESCE(MAX(attempt_number), 0)").
			Scan(&last).Error; err != nil {
			return err
		}
		attempt.Number = last + 1
		outcome.AttemptNumber = attempt.Number

		rows := submissionRows(in, result, attempt.Number)
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, 100).Error
	})
	if err != nil {
		return SubmitOutcome{}, fmt.Errorf("store submissions: %w", err)
	}
	outcome.Result = result

	if result.Passed && s.Progress != nil {
		if err := s.Progress.MarkComplete(ctx, in.UserID, in.ContentID, in.ClassID); err != nil {
			logger.Component("quiz").WithError(err).WithField("content_id", in.ContentID).Warn("mark complete failed")
		} else {
			outcome.Completed = true
		}
	}
	return outcome, nil
}

func submissionRows(in SubmitInput, result Result, attempt int) []academy.QuizSubmission {
	rows := make([]academy.QuizSubmission, 0, len(result.Questions))
	for _, qr := range result.Questions {
		if qr.Answer == nil {
			continue
		}
		row := academy.QuizSubmission{
			UserID:           in.UserID,
			ContentID:        in.ContentID,
			QuestionID:       qr.Question.ID,
			SelectedOptionID: qr.Answer.SelectedOptionID,
			AnswerText:       qr.Answer.AnswerText,
			AttemptNumber:    attempt,
		}
		if !qr.NeedsManualGrading {
			correct := qr.IsCorrect
			points := qr.PointsEarned
			row.IsCorrect = &correct
			row.PointsEarned = &points
		}
		rows = append(rows, row)
	}
	return rows
}

// GradeSubmission assigns points to an essay or short answer row. Points are
// clamped to [0, question points].
func (s *Service) GradeSubmission(ctx context.Context, in ManualGradeInput) (academy.QuizSubmission, error) {
	db := s.DB.WithContext(ctx)

	var sub academy.QuizSubmission
	if err := db.First(&sub, in.SubmissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sub, ErrNotFound
		}
		return sub, err
	}

	var question academy.QuizQuestion
	if err := db.First(&question, sub.QuestionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sub, ErrNotFound
		}
		return sub, err
	}
	if !QuestionType(question.QuestionType).Manual() {
		return sub, ErrNotManual
	}

	points := in.Points
	if points < 0 {
		points = 0
	}
	if points > question.Points {
		points = question.Points
	}
	correct := points == question.Points
	now := time.Now()
	grader := in.GraderID

	sub.PointsEarned = &points
	sub.IsCorrect = &correct
	sub.GradedBy = &grader
	sub.GradedAt = &now
	if in.Feedback != "" {
		feedback := in.Feedback
		sub.Feedback = &feedback
	}

	if err := db.Model(&sub).Select("points_earned", "is_correct", "graded_by", "graded_at", "feedback").Updates(&sub).Error; err != nil {
		return sub, err
	}

	s.completeAfterManualGrade(ctx, sub)
	return sub, nil
}

// completeAfterManualGrade marks the content complete once every row of the
// attempt is graded and the attempt reaches the pass threshold.
func (s *Service) completeAfterManualGrade(ctx context.Context, sub academy.QuizSubmission) {
	if s.Progress == nil {
		return
	}
	summary, err := s.Summarize(ctx, sub.UserID, sub.ContentID, sub.AttemptNumber)
	if err != nil || summary.PendingManual > 0 || !summary.Passed {
		return
	}

	var content academy.LearningContent
	if err := s.DB.WithContext(ctx).First(&content, sub.ContentID).Error; err != nil {
		return
	}
	if err := s.Progress.MarkComplete(ctx, sub.UserID, sub.ContentID, content.ClassID); err != nil {
		logger.Component("quiz").WithError(err).WithField("content_id", sub.ContentID).Warn("mark complete failed")
	}
}

// Summarize recomputes one attempt from stored rows, counting manual grades.
func (s *Service) Summarize(ctx context.Context, userID, contentID uint, attempt int) (AttemptSummary, error) {
	questions, err := s.LoadQuestions(ctx, contentID)
	if err != nil {
		return AttemptSummary{}, err
	}

	var rows []academy.QuizSubmission
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND content_id = ? AND attempt_number = ?", userID, contentID, attempt).
		Find(&rows).Error; err != nil {
		return AttemptSummary{}, err
	}
	if len(rows) == 0 {
		return AttemptSummary{}, ErrNotFound
	}

	summary := AttemptSummary{AttemptNumber: attempt, SubmittedAt: rows[0].CreatedAt}
	known := make(map[uint]bool, len(questions))
	for _, q := range questions {
		summary.TotalPoints += q.Points
		known[q.ID] = true
	}
	for _, row := range rows {
		if !known[row.QuestionID] {
			continue
		}
		if row.PointsEarned == nil {
			summary.PendingManual++
			continue
		}
		summary.EarnedPoints += *row.PointsEarned
	}
	summary.Percentage = Percentage(summary.EarnedPoints, summary.TotalPoints)
	summary.Passed = summary.Percentage >= PassThreshold
	return summary, nil
}

// ListAttempts summarizes every attempt of a learner, newest first.
func (s *Service) ListAttempts(ctx context.Context, userID, contentID uint) ([]AttemptSummary, error) {
	var numbers []int
	if err := s.DB.WithContext(ctx).Model(&academy.QuizSubmission{}).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Distinct("attempt_number").
		Order("attempt_number desc").
		Pluck("attempt_number", &numbers).Error; err != nil {
		return nil, err
	}

	out := make([]AttemptSummary, 0, len(numbers))
	for _, n := range numbers {
		summary, err := s.Summarize(ctx, userID, contentID, n)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *Service) pendingManualQuery(ctx context.Context, contentID uint) *gorm.DB {
	q := s.DB.WithContext(ctx).Model(&academy.QuizSubmission{}).
		Joins("JOIN quiz_questions ON quiz_questions.id = quiz_submissions.question_id").
		Where("quiz_questions.question_type IN ?", []string{string(Essay), string(ShortAnswer)}).
		Where("quiz_submissions.graded_at IS NULL")
	if contentID != 0 {
		q = q.Where("quiz_submissions.content_id = ?", contentID)
	}
	return q
}

// ListPendingManual returns ungraded essay and short answer rows, oldest first.
// A zero contentID lists every content item.
func (s *Service) ListPendingManual(ctx context.Context, contentID uint) ([]academy.QuizSubmission, error) {
	var rows []academy.QuizSubmission
	err := s.pendingManualQuery(ctx, contentID).
		Select("quiz_submissions.*").
		Order("quiz_submissions.created_at asc, quiz_submissions.id asc").
		Find(&rows).Error
	return rows, err
}

// CountPendingManual counts rows ListPendingManual would return.
func (s *Service) CountPendingManual(ctx context.Context, contentID uint) (int64, error) {
	var n int64
	err := s.pendingManualQuery(ctx, contentID).Count(&n).Error
	return n, err
}
