package learningController

import (
	"errors"

	"garuda/database"
	"garuda/middleware"
	"garuda/models/academy"
	"garuda/services/access"
	"garuda/services/progress"
	"garuda/utils/logger"
	learningValidator "garuda/validators/learning"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var log = logger.Component("learning")

func actor(c *fiber.Ctx) access.Actor {
	s := middleware.CurrentSession(c)
	return access.Actor{UserID: s.UserID, Role: s.Role}
}

func findContent(db *gorm.DB, id uint) (academy.LearningContent, error) {
	var content academy.LearningContent
	err := db.Where("id = ? AND is_deleted = ?", id, false).First(&content).Error
	return content, err
}

// guardManage loads the content and checks the caller manages its class.
// A non-nil error means the response has already been written.
func guardManage(c *fiber.Ctx, contentID uint) (academy.LearningContent, bool, error) {
	db := database.Database.Db
	content, err := findContent(db, contentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return content, false, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Content not found!", nil)
		}
		return content, false, middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch content!", nil)
	}

	ok, err := access.CanManageClass(c.UserContext(), db, actor(c), content.ClassID)
	if err != nil {
		return content, false, middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check access!", nil)
	}
	if !ok {
		return content, false, middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not a trainer of this class!", nil)
	}
	return content, true, nil
}

// guardView loads the content and checks the caller may read it. Learners
// only see published content.
func guardView(c *fiber.Ctx, contentID uint) (academy.LearningContent, bool, error) {
	db := database.Database.Db
	content, err := findContent(db, contentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return content, false, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Content not found!", nil)
		}
		return content, false, middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch content!", nil)
	}

	a := actor(c)
	manager, err := access.CanManageClass(c.UserContext(), db, a, content.ClassID)
	if err != nil {
		return content, false, middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check access!", nil)
	}
	if manager {
		return content, true, nil
	}

	ok, err := access.CanViewClass(c.UserContext(), db, a, content.ClassID)
	if err != nil && !errors.Is(err, access.ErrClassNotFound) {
		return content, false, middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check access!", nil)
	}
	if !ok || !content.IsPublished {
		return content, false, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Content not found!", nil)
	}
	return content, true, nil
}

func CreateContent(c *fiber.Ctx) error {
	reqData := c.Locals("validatedContent").(*learningValidator.ContentRequest)
	db := database.Database.Db
	classID := c.Locals("id").(uint)

	ok, err := access.CanManageClass(c.UserContext(), db, actor(c), classID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check access!", nil)
	}
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not a trainer of this class!", nil)
	}

	var class academy.Class
	if err := db.Where("id = ? AND is_deleted = ?", classID, false).First(&class).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Class not found!", nil)
	}

	content := academy.LearningContent{
		ClassID:     class.ID,
		Title:       reqData.Title,
		Description: reqData.Description,
		ContentType: academy.ContentType(reqData.ContentType),
		Body:        reqData.Body,
		VideoURL:    reqData.VideoURL,
		DocumentURL: reqData.DocumentURL,
		OrderIndex:  reqData.OrderIndex,
		DueDate:     reqData.Due,
		IsPublished: reqData.IsPublished,
	}
	if err := db.Create(&content).Error; err != nil {
		log.Errorf("create content in class %d: %v", class.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create content!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Content created successfully!", content)
}

func UpdateContent(c *fiber.Ctx) error {
	reqData := c.Locals("validatedContent").(*learningValidator.ContentRequest)
	content, ok, err := guardManage(c, c.Locals("id").(uint))
	if !ok {
		return err
	}

	db := database.Database.Db
	err = db.Model(&content).Updates(map[string]interface{}{
		"title":        reqData.Title,
		"description":  reqData.Description,
		"content_type": reqData.ContentType,
		"body":         reqData.Body,
		"video_url":    reqData.VideoURL,
		"document_url": reqData.DocumentURL,
		"order_index":  reqData.OrderIndex,
		"due_date":     reqData.Due,
		"is_published": reqData.IsPublished,
	}).Error
	if err != nil {
		log.Errorf("update content %d: %v", content.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update content!", nil)
	}
	db.First(&content, content.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content updated successfully!", content)
}

func DeleteContent(c *fiber.Ctx) error {
	content, ok, err := guardManage(c, c.Locals("id").(uint))
	if !ok {
		return err
	}

	if err := database.Database.Db.Model(&content).Update("is_deleted", true).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete content!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content deleted successfully!", nil)
}

func PublishContent(c *fiber.Ctx) error {
	reqData := c.Locals("validatedPublish").(*learningValidator.PublishRequest)
	content, ok, err := guardManage(c, c.Locals("id").(uint))
	if !ok {
		return err
	}

	if err := database.Database.Db.Model(&content).Update("is_published", reqData.IsPublished).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update content!", nil)
	}
	content.IsPublished = reqData.IsPublished

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content updated successfully!", content)
}

type contentItem struct {
	academy.LearningContent
	Completed bool `json:"completed"`
}

// ListClassContents lists the class's content in order. Learners see published
// items with their completion flag; trainers and admins see everything.
func ListClassContents(c *fiber.Ctx) error {
	db := database.Database.Db
	classID := c.Locals("id").(uint)
	a := actor(c)

	ok, err := access.CanViewClass(c.UserContext(), db, a, classID)
	if errors.Is(err, access.ErrClassNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Class not found!", nil)
	}
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check access!", nil)
	}
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this class!", nil)
	}

	manager, err := access.CanManageClass(c.UserContext(), db, a, classID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check access!", nil)
	}

	q := db.Where("class_id = ? AND is_deleted = ?", classID, false)
	if !manager {
		q = q.Where("is_published = ?", true)
	}
	var contents []academy.LearningContent
	if err := q.Order("order_index asc, id asc").Find(&contents).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch contents!", nil)
	}

	p, err := progress.NewTracker(db).Class(c.UserContext(), a.UserID, classID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}
	done := make(map[uint]bool, len(p.CompletedIDs))
	for _, id := range p.CompletedIDs {
		done[id] = true
	}

	items := make([]contentItem, 0, len(contents))
	for _, content := range contents {
		items = append(items, contentItem{LearningContent: content, Completed: done[content.ID]})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Contents fetched successfully!", fiber.Map{
		"contents": items,
		"progress": p,
	})
}

func GetContent(c *fiber.Ctx) error {
	content, ok, err := guardView(c, c.Locals("id").(uint))
	if !ok {
		return err
	}

	done, err := progress.NewTracker(database.Database.Db).IsComplete(c.UserContext(), middleware.CurrentSession(c).UserID, content.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content fetched successfully!", contentItem{LearningContent: content, Completed: done})
}

// MarkComplete records completion of non-quiz content. Quizzes complete by passing.
func MarkComplete(c *fiber.Ctx) error {
	content, ok, err := guardView(c, c.Locals("id").(uint))
	if !ok {
		return err
	}
	if content.ContentType == academy.ContentQuiz {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Quizzes are completed by passing them!", nil)
	}

	session := middleware.CurrentSession(c)
	tracker := progress.NewTracker(database.Database.Db)
	if err := tracker.MarkComplete(c.UserContext(), session.UserID, content.ID, content.ClassID); err != nil {
		log.Errorf("mark content %d complete for user %d: %v", content.ID, session.UserID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record progress!", nil)
	}

	p, err := tracker.Class(c.UserContext(), session.UserID, content.ClassID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content marked as complete!", p)
}

// ClassProgress returns the caller's completion over the class.
func ClassProgress(c *fiber.Ctx) error {
	db := database.Database.Db
	classID := c.Locals("id").(uint)
	a := actor(c)

	ok, err := access.CanViewClass(c.UserContext(), db, a, classID)
	if errors.Is(err, access.ErrClassNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Class not found!", nil)
	}
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check access!", nil)
	}
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this class!", nil)
	}

	p, err := progress.NewTracker(db).Class(c.UserContext(), a.UserID, classID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", p)
}
