package quiz

import (
	"context"
	"errors"
	"testing"

	"garuda/database"
	"garuda/models/academy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type markCall struct {
	userID, contentID, classID uint
}

type fakeProgress struct {
	calls []markCall
	err   error
}

func (f *fakeProgress) MarkComplete(_ context.Context, userID, contentID, classID uint) error {
	f.calls = append(f.calls, markCall{userID, contentID, classID})
	return f.err
}

type quizFixture struct {
	db       *gorm.DB
	content  academy.LearningContent
	mc       academy.QuizQuestion
	tf       academy.QuizQuestion
	essay    academy.QuizQuestion
	progress *fakeProgress
	svc      *Service
}

func newFixture(t *testing.T) *quizFixture {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&academy.LearningContent{},
		&academy.QuizQuestion{},
		&academy.QuizOption{},
		&academy.QuizSubmission{},
	))

	f := &quizFixture{db: db, progress: &fakeProgress{}}
	f.content = academy.LearningContent{ClassID: 3, Title: "Kuis Modul 1", ContentType: academy.ContentQuiz, IsPublished: true}
	require.NoError(t, db.Create(&f.content).Error)

	benar := "Benar"
	// created out of order to exercise ordering
	f.essay = academy.QuizQuestion{ContentID: f.content.ID, QuestionText: "Jelaskan", QuestionType: "essay", Points: 20, OrderIndex: 3}
	f.tf = academy.QuizQuestion{ContentID: f.content.ID, QuestionText: "Bumi bulat?", QuestionType: "true_false", Points: 30, OrderIndex: 2, CorrectAnswer: &benar}
	f.mc = academy.QuizQuestion{
		ContentID: f.content.ID, QuestionText: "Ibu kota?", QuestionType: "multiple_choice", Points: 50, OrderIndex: 1,
		Options: []academy.QuizOption{
			{OptionText: "Bandung", OrderIndex: 2},
			{OptionText: "Jakarta", IsCorrect: true, OrderIndex: 1},
		},
	}
	require.NoError(t, db.Create(&f.essay).Error)
	require.NoError(t, db.Create(&f.tf).Error)
	require.NoError(t, db.Create(&f.mc).Error)

	f.svc = NewService(db, f.progress)
	return f
}

func (f *quizFixture) correctOption() uint {
	for _, o := range f.mc.Options {
		if o.IsCorrect {
			return o.ID
		}
	}
	return 0
}

func (f *quizFixture) wrongOption() uint {
	for _, o := range f.mc.Options {
		if !o.IsCorrect {
			return o.ID
		}
	}
	return 0
}

func TestLoadQuestionsOrdered(t *testing.T) {
	f := newFixture(t)

	questions, err := f.svc.LoadQuestions(context.Background(), f.content.ID)
	require.NoError(t, err)
	require.Len(t, questions, 3)
	assert.Equal(t, []uint{f.mc.ID, f.tf.ID, f.essay.ID}, []uint{questions[0].ID, questions[1].ID, questions[2].ID})
	require.Len(t, questions[0].Options, 2)
	assert.Equal(t, "Jakarta", questions[0].Options[0].Text)
}

func TestLoadQuestionsRejectsUnknownType(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Create(&academy.QuizQuestion{ContentID: f.content.ID, QuestionType: "matching", Points: 1}).Error)

	_, err := f.svc.LoadQuestions(context.Background(), f.content.ID)
	assert.ErrorIs(t, err, ErrInvalidQuestion)
}

func TestSubmitPassMarksComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Submit(ctx, SubmitInput{
		UserID:    9,
		ContentID: f.content.ID,
		ClassID:   3,
		Answers: []Answer{
			pick(f.mc.ID, f.correctOption()),
			{QuestionID: f.tf.ID, AnswerText: ptr("Benar")},
			{QuestionID: f.essay.ID, AnswerText: ptr("Karena gravitasi")},
			{QuestionID: 4242, AnswerText: ptr("ignored")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, out.AttemptNumber)
	assert.Equal(t, 100, out.Result.TotalPoints)
	assert.Equal(t, 80, out.Result.EarnedPoints)
	assert.True(t, out.Result.Passed)
	assert.True(t, out.Completed)
	assert.Equal(t, []markCall{{9, f.content.ID, 3}}, f.progress.calls)

	var rows []academy.QuizSubmission
	require.NoError(t, f.db.Order("question_id asc").Find(&rows).Error)
	require.Len(t, rows, 3)
	for _, row := range rows {
		if row.QuestionID == f.essay.ID {
			assert.Nil(t, row.PointsEarned)
			assert.Nil(t, row.IsCorrect)
			continue
		}
		require.NotNil(t, row.IsCorrect)
		assert.True(t, *row.IsCorrect)
	}
}

func TestSubmitFailDoesNotMarkComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Submit(ctx, SubmitInput{
		UserID:    9,
		ContentID: f.content.ID,
		Answers:   []Answer{pick(f.mc.ID, f.wrongOption())},
	})
	require.NoError(t, err)
	assert.False(t, out.Result.Passed)
	assert.False(t, out.Completed)
	assert.Empty(t, f.progress.calls)

	second, err := f.svc.Submit(ctx, SubmitInput{UserID: 9, ContentID: f.content.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, second.AttemptNumber)
}

func TestSubmitRetriesNumberPerLearner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// the later answer to the same question wins
	first, err := f.svc.Submit(ctx, SubmitInput{
		UserID:    9,
		ContentID: f.content.ID,
		Answers: []Answer{
			pick(f.mc.ID, f.wrongOption()),
			pick(f.mc.ID, f.correctOption()),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.AttemptNumber)
	assert.Equal(t, 50, first.Result.EarnedPoints)

	retry, err := f.svc.Submit(ctx, SubmitInput{
		UserID:    9,
		ContentID: f.content.ID,
		Answers:   []Answer{pick(f.mc.ID, f.wrongOption())},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, retry.AttemptNumber)
	assert.Equal(t, 0, retry.Result.EarnedPoints)

	other, err := f.svc.Submit(ctx, SubmitInput{UserID: 10, ContentID: f.content.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, other.AttemptNumber)

	var rows []academy.QuizSubmission
	require.NoError(t, f.db.Where("user_id = ?", 9).Order("attempt_number asc").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, []int{1, 2}, []int{rows[0].AttemptNumber, rows[1].AttemptNumber})
	require.NotNil(t, rows[0].SelectedOptionID)
	assert.Equal(t, f.correctOption(), *rows[0].SelectedOptionID)
}

func TestSubmitProgressErrorKeepsResult(t *testing.T) {
	f := newFixture(t)
	f.progress.err = errors.New("db down")

	out, err := f.svc.Submit(context.Background(), SubmitInput{
		UserID:    9,
		ContentID: f.content.ID,
		Answers: []Answer{
			pick(f.mc.ID, f.correctOption()),
			{QuestionID: f.tf.ID, AnswerText: ptr("Benar")},
		},
	})
	require.NoError(t, err)
	assert.True(t, out.Result.Passed)
	assert.False(t, out.Completed)
}

func TestSubmitWithoutQuestions(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), SubmitInput{UserID: 1, ContentID: 999})
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestGradeSubmissionManual(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Submit(ctx, SubmitInput{
		UserID:    9,
		ContentID: f.content.ID,
		ClassID:   3,
		Answers: []Answer{
			pick(f.mc.ID, f.correctOption()),
			{QuestionID: f.tf.ID, AnswerText: ptr("Salah")},
			{QuestionID: f.essay.ID, AnswerText: ptr("Jawaban panjang")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 50, out.Result.Percentage)
	assert.Empty(t, f.progress.calls)

	pending, err := f.svc.ListPendingManual(ctx, f.content.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	n, err := f.svc.CountPendingManual(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	graded, err := f.svc.GradeSubmission(ctx, ManualGradeInput{SubmissionID: pending[0].ID, GraderID: 2, Points: 500, Feedback: "Bagus"})
	require.NoError(t, err)
	require.NotNil(t, graded.PointsEarned)
	assert.Equal(t, 20, *graded.PointsEarned)
	assert.True(t, *graded.IsCorrect)
	assert.Equal(t, uint(2), *graded.GradedBy)
	assert.Equal(t, "Bagus", *graded.Feedback)

	pending, err = f.svc.ListPendingManual(ctx, f.content.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	summary, err := f.svc.Summarize(ctx, 9, f.content.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 70, summary.EarnedPoints)
	assert.Equal(t, 70, summary.Percentage)
	assert.False(t, summary.Passed)
	assert.Empty(t, f.progress.calls)
}

func TestGradeSubmissionCompletesWhenManualPointsPass(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Model(&f.essay).Update("points", 50).Error)

	_, err := f.svc.Submit(ctx, SubmitInput{
		UserID:    9,
		ContentID: f.content.ID,
		ClassID:   3,
		Answers: []Answer{
			pick(f.mc.ID, f.correctOption()),
			{QuestionID: f.essay.ID, AnswerText: ptr("Jawaban")},
		},
	})
	require.NoError(t, err)

	pending, err := f.svc.ListPendingManual(ctx, f.content.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = f.svc.GradeSubmission(ctx, ManualGradeInput{SubmissionID: pending[0].ID, GraderID: 2, Points: 10})
	require.NoError(t, err)
	assert.Empty(t, f.progress.calls, "partial manual points stay below the threshold")

	graded, err := f.svc.GradeSubmission(ctx, ManualGradeInput{SubmissionID: pending[0].ID, GraderID: 2, Points: 500})
	require.NoError(t, err)
	assert.Equal(t, 50, *graded.PointsEarned)
	assert.True(t, *graded.IsCorrect)
	assert.Equal(t, []markCall{{9, f.content.ID, 3}}, f.progress.calls)

	attempts, err := f.svc.ListAttempts(ctx, 9, f.content.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, 77, attempts[0].Percentage)
}

func TestGradeSubmissionRejectsAutoGradedRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, SubmitInput{UserID: 9, ContentID: f.content.ID, Answers: []Answer{pick(f.mc.ID, f.wrongOption())}})
	require.NoError(t, err)

	var row academy.QuizSubmission
	require.NoError(t, f.db.First(&row).Error)

	_, err = f.svc.GradeSubmission(ctx, ManualGradeInput{SubmissionID: row.ID, GraderID: 2, Points: 5})
	assert.ErrorIs(t, err, ErrNotManual)

	_, err = f.svc.GradeSubmission(ctx, ManualGradeInput{SubmissionID: 9999, GraderID: 2})
	assert.ErrorIs(t, err, ErrNotFound)
}
