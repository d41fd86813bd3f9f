package learningController

import (
	"errors"

	"garuda/database"
	"garuda/middleware"
	"garuda/models/academy"
	"garuda/services/access"
	"garuda/services/progress"
	"garuda/services/quiz"
	learningValidator "garuda/validators/learning"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func quizService() *quiz.Service {
	db := database.Database.Db
	return quiz.NewService(db, progress.NewTracker(db))
}

func questionRows(questionID uint, reqData *learningValidator.QuestionRequest) []academy.QuizOption {
	options := make([]academy.QuizOption, 0, len(reqData.Options))
	for i, o := range reqData.Options {
		order := o.OrderIndex
		if order == 0 {
			order = i
		}
		options = append(options, academy.QuizOption{
			QuestionID: questionID,
			OptionText: o.OptionText,
			IsCorrect:  o.IsCorrect,
			OrderIndex: order,
		})
	}
	return options
}

func CreateQuestion(c *fiber.Ctx) error {
	reqData := c.Locals("validatedQuestion").(*learningValidator.QuestionRequest)
	content, ok, err := guardManage(c, c.Locals("id").(uint))
	if !ok {
		return err
	}
	if content.ContentType != academy.ContentQuiz {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Questions can only be added to quiz content!", nil)
	}

	question := academy.QuizQuestion{
		ContentID:     content.ID,
		QuestionText:  reqData.QuestionText,
		QuestionType:  reqData.QuestionType,
		Points:        reqData.Points,
		Explanation:   reqData.Explanation,
		CorrectAnswer: reqData.CorrectAnswer,
		OrderIndex:    reqData.OrderIndex,
	}
	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Options").Create(&question).Error; err != nil {
			return err
		}
		options := questionRows(question.ID, reqData)
		if len(options) == 0 {
			return nil
		}
		if err := tx.Create(&options).Error; err != nil {
			return err
		}
		question.Options = options
		return nil
	})
	if err != nil {
		log.Errorf("create question for content %d: %v", content.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create question!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Question created successfully!", question)
}

func findQuestion(c *fiber.Ctx) (academy.QuizQuestion, bool, error) {
	var question academy.QuizQuestion
	if err := database.Database.Db.First(&question, c.Locals("id").(uint)).Error; err != nil {
		return question, false, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Question not found!", nil)
	}
	_, ok, err := guardManage(c, question.ContentID)
	return question, ok, err
}

// UpdateQuestion replaces the question and its options.
func UpdateQuestion(c *fiber.Ctx) error {
	reqData := c.Locals("validatedQuestion").(*learningValidator.QuestionRequest)
	question, ok, err := findQuestion(c)
	if !ok {
		return err
	}

	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&question).Updates(map[string]interface{}{
			"question_text":  reqData.QuestionText,
			"question_type":  reqData.QuestionType,
			"points":         reqData.Points,
			"explanation":    reqData.Explanation,
			"correct_answer": reqData.CorrectAnswer,
			"order_index":    reqData.OrderIndex,
		}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("question_id = ?", question.ID).Delete(&academy.QuizOption{}).Error; err != nil {
			return err
		}
		options := questionRows(question.ID, reqData)
		if len(options) == 0 {
			return nil
		}
		return tx.Create(&options).Error
	})
	if err != nil {
		log.Errorf("update question %d: %v", question.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update question!", nil)
	}

	database.Database.Db.Preload("Options").First(&question, question.ID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Question updated successfully!", question)
}

func DeleteQuestion(c *fiber.Ctx) error {
	question, ok, err := findQuestion(c)
	if !ok {
		return err
	}

	err = database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", question.ID).Delete(&academy.QuizOption{}).Error; err != nil {
			return err
		}
		return tx.Delete(&question).Error
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete question!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Question deleted successfully!", nil)
}

// ListQuestions is the authoring view, answers included.
func ListQuestions(c *fiber.Ctx) error {
	content, ok, err := guardManage(c, c.Locals("id").(uint))
	if !ok {
		return err
	}

	var questions []academy.QuizQuestion
	if err := database.Database.Db.
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("order_index asc, id asc") }).
		Where("content_id = ?", content.ID).
		Order("order_index asc, id asc").
		Find(&questions).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch questions!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Questions fetched successfully!", questions)
}

type optionView struct {
	ID         uint   `json:"id"`
	OptionText string `json:"option_text"`
	OrderIndex int    `json:"order_index"`
}

type questionView struct {
	ID           uint         `json:"id"`
	QuestionText string       `json:"question_text"`
	QuestionType string       `json:"question_type"`
	Points       int          `json:"points"`
	OrderIndex   int          `json:"order_index"`
	Options      []optionView `json:"options"`
}

// GetQuiz is the learner view: no correct flags or answers.
func GetQuiz(c *fiber.Ctx) error {
	content, ok, err := guardView(c, c.Locals("id").(uint))
	if !ok {
		return err
	}
	if content.ContentType != academy.ContentQuiz {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	questions, err := quizService().LoadQuestions(c.UserContext(), content.ID)
	if err != nil {
		log.Errorf("load quiz %d: %v", content.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load quiz!", nil)
	}

	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		v := questionView{
			ID:           q.ID,
			QuestionText: q.Text,
			QuestionType: string(q.Type),
			Points:       q.Points,
			OrderIndex:   q.OrderIndex,
			Options:      make([]optionView, 0, len(q.Options)),
		}
		for _, o := range q.Options {
			v.Options = append(v.Options, optionView{ID: o.ID, OptionText: o.Text, OrderIndex: o.OrderIndex})
		}
		views = append(views, v)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz fetched successfully!", fiber.Map{
		"content":        content,
		"questions":      views,
		"pass_threshold": quiz.PassThreshold,
	})
}

// SubmitQuiz grades an attempt. Every submission is a new attempt.
func SubmitQuiz(c *fiber.Ctx) error {
	reqData := c.Locals("validatedQuizSubmit").(*learningValidator.SubmitQuizRequest)
	content, ok, err := guardView(c, c.Locals("id").(uint))
	if !ok {
		return err
	}
	if content.ContentType != academy.ContentQuiz {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	answers := make([]quiz.Answer, 0, len(reqData.Answers))
	for _, a := range reqData.Answers {
		answers = append(answers, quiz.Answer{QuestionID: a.QuestionID, SelectedOptionID: a.SelectedOptionID, AnswerText: a.AnswerText})
	}

	session := middleware.CurrentSession(c)
	outcome, err := quizService().Submit(c.UserContext(), quiz.SubmitInput{
		UserID:    session.UserID,
		ContentID: content.ID,
		ClassID:   content.ClassID,
		Answers:   answers,
	})
	switch {
	case errors.Is(err, quiz.ErrNoQuestions):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "This quiz has no questions yet!", nil)
	case err != nil:
		log.Errorf("submit quiz %d for user %d: %v", content.ID, session.UserID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit quiz!", nil)
	}

	message := "Quiz submitted. You did not reach the passing score yet."
	switch {
	case outcome.Result.PendingManual() > 0:
		message = "Quiz submitted. Some answers are waiting for the trainer's review."
	case outcome.Result.Passed:
		message = "Quiz passed!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, outcome)
}

// QuizAttempts lists the caller's attempts, newest first.
func QuizAttempts(c *fiber.Ctx) error {
	content, ok, err := guardView(c, c.Locals("id").(uint))
	if !ok {
		return err
	}

	attempts, err := quizService().ListAttempts(c.UserContext(), middleware.CurrentSession(c).UserID, content.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch attempts!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempts fetched successfully!", attempts)
}

// PendingGrading lists essay and short answers awaiting a grade for a quiz.
func PendingGrading(c *fiber.Ctx) error {
	content, ok, err := guardManage(c, c.Locals("id").(uint))
	if !ok {
		return err
	}

	rows, err := quizService().ListPendingManual(c.UserContext(), content.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch submissions!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Pending submissions fetched successfully!", rows)
}

// GradeSubmission scores one essay or short answer row.
func GradeSubmission(c *fiber.Ctx) error {
	reqData := c.Locals("validatedGrade").(*learningValidator.GradeRequest)
	db := database.Database.Db

	var sub academy.QuizSubmission
	if err := db.First(&sub, c.Locals("id").(uint)).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Submission not found!", nil)
	}
	content, err := findContent(db, sub.ContentID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Content not found!", nil)
	}
	allowed, err := access.CanManageClass(c.UserContext(), db, actor(c), content.ClassID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check access!", nil)
	}
	if !allowed {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not a trainer of this class!", nil)
	}

	graded, err := quizService().GradeSubmission(c.UserContext(), quiz.ManualGradeInput{
		SubmissionID: sub.ID,
		GraderID:     middleware.CurrentSession(c).UserID,
		Points:       reqData.Points,
		Feedback:     reqData.Feedback,
	})
	switch {
	case errors.Is(err, quiz.ErrNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Submission not found!", nil)
	case errors.Is(err, quiz.ErrNotManual):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "This answer is graded automatically!", nil)
	case err != nil:
		log.Errorf("grade submission %d: %v", sub.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to grade submission!", nil)
	}

	summary, err := quizService().Summarize(c.UserContext(), graded.UserID, graded.ContentID, graded.AttemptNumber)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Submission graded successfully!", fiber.Map{"submission": graded})
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submission graded successfully!", fiber.Map{
		"submission": graded,
		"attempt":    summary,
	})
}
