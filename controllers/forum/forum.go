package forumController

import (
	"errors"
	"time"

	"garuda/database"
	"garuda/middleware"
	"garuda/models"
	"garuda/models/community"
	"garuda/services/access"
	"garuda/utils"
	forumValidator "garuda/validators/forum"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func actor(c *fiber.Ctx) access.Actor {
	s := middleware.CurrentSession(c)
	return access.Actor{UserID: s.UserID, Role: s.Role}
}

// guardClass writes the error response and returns false when the caller
// may not take part in the class's forum.
func guardClass(c *fiber.Ctx, classID uint) bool {
	ok, err := access.CanViewClass(c.UserContext(), database.Database.Db, actor(c), classID)
	switch {
	case errors.Is(err, access.ErrClassNotFound):
		_ = middleware.JsonResponse(c, fiber.StatusNotFound, false, "Class not found!", nil)
		return false
	case err != nil:
		_ = middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check access!", nil)
		return false
	case !ok:
		_ = middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not a member of this class!", nil)
		return false
	}
	return true
}

func findThread(c *fiber.Ctx) (community.ForumThread, bool) {
	var thread community.ForumThread
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", c.Locals("id").(uint), false).First(&thread).Error; err != nil {
		_ = middleware.JsonResponse(c, fiber.StatusNotFound, false, "Thread not found!", nil)
		return thread, false
	}
	return thread, guardClass(c, thread.ClassID)
}

// ListThreads returns the class threads, pinned first, then by last activity.
func ListThreads(c *fiber.Ctx) error {
	classID := c.Locals("id").(uint)
	if !guardClass(c, classID) {
		return nil
	}
	page := utils.NewPagination(c.QueryInt("page", 1), c.QueryInt("limit", 20))

	db := database.Database.Db.Model(&community.ForumThread{}).Where("class_id = ? AND is_deleted = ?", classID, false)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch threads!", nil)
	}

	var threads []community.ForumThread
	if err := db.Order("is_pinned desc").
		Order("COALESCE(last_reply_at, created_at) desc").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&threads).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch threads!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Threads fetched successfully!", fiber.Map{
		"threads":    threads,
		"pagination": page.Meta(total),
	})
}

func CreateThread(c *fiber.Ctx) error {
	reqData := c.Locals("validatedThread").(*forumValidator.ThreadRequest)
	classID := c.Locals("id").(uint)
	if !guardClass(c, classID) {
		return nil
	}

	thread := community.ForumThread{
		ClassID:  classID,
		AuthorID: middleware.CurrentSession(c).UserID,
		Title:    reqData.Title,
		Body:     reqData.Body,
	}
	if err := database.Database.Db.Create(&thread).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create thread!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Thread created successfully!", thread)
}

func GetThread(c *fiber.Ctx) error {
	thread, ok := findThread(c)
	if !ok {
		return nil
	}

	if err := database.Database.Db.Preload("Replies", func(db *gorm.DB) *gorm.DB {
		return db.Where("is_deleted = ?", false).Order("created_at asc")
	}).First(&thread, thread.ID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch thread!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Thread fetched successfully!", thread)
}

// Reply adds a reply and bumps the thread's activity. Locked threads reject replies.
func Reply(c *fiber.Ctx) error {
	reqData := c.Locals("validatedReply").(*forumValidator.ReplyRequest)
	thread, ok := findThread(c)
	if !ok {
		return nil
	}
	if thread.IsLocked {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "This thread is locked!", nil)
	}

	reply := community.ForumReply{ThreadID: thread.ID, AuthorID: middleware.CurrentSession(c).UserID, Body: reqData.Body}
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reply).Error; err != nil {
			return err
		}
		return tx.Model(&thread).Updates(map[string]interface{}{
			"reply_count":   gorm.Expr("reply_count + 1"),
			"last_reply_at": time.Now(),
		}).Error
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to post reply!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Reply posted successfully!", reply)
}

func DeleteThread(c *fiber.Ctx) error {
	thread, ok := findThread(c)
	if !ok {
		return nil
	}
	session := middleware.CurrentSession(c)
	if thread.AuthorID != session.UserID && session.Role != models.RoleAdmin {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You can only delete your own threads!", nil)
	}

	if err := database.Database.Db.Model(&thread).Update("is_deleted", true).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete thread!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Thread deleted successfully!", nil)
}

func DeleteReply(c *fiber.Ctx) error {
	db := database.Database.Db
	session := middleware.CurrentSession(c)

	var reply community.ForumReply
	if err := db.Where("id = ? AND is_deleted = ?", c.Locals("id").(uint), false).First(&reply).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Reply not found!", nil)
	}
	if reply.AuthorID != session.UserID && session.Role != models.RoleAdmin {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You can only delete your own replies!", nil)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&reply).Update("is_deleted", true).Error; err != nil {
			return err
		}
		return tx.Model(&community.ForumThread{}).
			Where("id = ? AND reply_count > 0", reply.ThreadID).
			Update("reply_count", gorm.Expr("reply_count - 1")).Error
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete reply!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Reply deleted successfully!", nil)
}

// Moderate pins or locks a thread. Only class trainers and admins may.
func Moderate(c *fiber.Ctx) error {
	reqData := c.Locals("validatedModerate").(*forumValidator.ModerateRequest)
	thread, ok := findThread(c)
	if !ok {
		return nil
	}

	manager, err := access.CanManageClass(c.UserContext(), database.Database.Db, actor(c), thread.ClassID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check access!", nil)
	}
	if !manager {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Only trainers can moderate threads!", nil)
	}

	updates := map[string]interface{}{}
	if reqData.IsPinned != nil {
		updates["is_pinned"] = *reqData.IsPinned
		thread.IsPinned = *reqData.IsPinned
	}
	if reqData.IsLocked != nil {
		updates["is_locked"] = *reqData.IsLocked
		thread.IsLocked = *reqData.IsLocked
	}
	if err := database.Database.Db.Model(&community.ForumThread{}).Where("id = ?", thread.ID).Updates(updates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update thread!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Thread updated successfully!", thread)
}
