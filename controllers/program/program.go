package programController

import (
	"errors"
	"fmt"
	"strings"

	"garuda/database"
	"garuda/middleware"
	"garuda/models/academy"
	"garuda/utils"
	"garuda/utils/logger"
	programValidator "garuda/validators/program"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var log = logger.Component("program")

// uniqueSlug appends -2, -3 ... until the slug is free. excludeID skips the program being updated.
func uniqueSlug(db *gorm.DB, title string, excludeID uint) (string, error) {
	base := utils.Slugify(title)
	slug := base
	for i := 2; ; i++ {
		var n int64
		q := db.Model(&academy.Program{}).Where("slug = ?", slug)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func findProgram(db *gorm.DB, id uint) (academy.Program, error) {
	var p academy.Program
	err := db.Where("id = ? AND is_deleted = ?", id, false).First(&p).Error
	return p, err
}

func notFoundOr500(c *fiber.Ctx, err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, what+" not found!", nil)
	}
	log.Errorf("fetch %s: %v", strings.ToLower(what), err)
	return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch "+strings.ToLower(what)+"!", nil)
}

// ListPrograms is the public catalog: published programs only.
func ListPrograms(c *fiber.Ctx) error {
	return listPrograms(c, true)
}

// AdminListPrograms lists programs of every status.
func AdminListPrograms(c *fiber.Ctx) error {
	return listPrograms(c, false)
}

func listPrograms(c *fiber.Ctx, publishedOnly bool) error {
	reqData := c.Locals("validatedProgramList").(*programValidator.ProgramListQuery)
	page := utils.NewPagination(reqData.Page, reqData.Limit)

	db := database.Database.Db.Model(&academy.Program{}).Where("is_deleted = ?", false)
	if publishedOnly {
		db = db.Where("status = ?", academy.ProgramPublished)
	} else if reqData.Status != "" {
		db = db.Where("status = ?", reqData.Status)
	}
	if s := strings.TrimSpace(reqData.Search); s != "" {
		db = db.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if reqData.Category != "" {
		db = db.Where("category = ?", reqData.Category)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch programs!", nil)
	}

	var programs []academy.Program
	if err := db.Order("created_at desc").Offset(page.Offset()).Limit(page.Limit).Find(&programs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch programs!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Programs fetched successfully!", fiber.Map{
		"programs":   programs,
		"pagination": page.Meta(total),
	})
}

// GetProgram returns a published program by slug with its open classes.
func GetProgram(c *fiber.Ctx) error {
	db := database.Database.Db

	var program academy.Program
	if err := db.Where("slug = ? AND status = ? AND is_deleted = ?", c.Params("slug"), academy.ProgramPublished, false).
		First(&program).Error; err != nil {
		return notFoundOr500(c, err, "Program")
	}

	var classes []academy.Class
	if err := db.Where("program_id = ? AND is_deleted = ? AND status <> ?", program.ID, false, academy.ClassCancelled).
		Order("start_date").Find(&classes).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch classes!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Program fetched successfully!", fiber.Map{
		"program": program,
		"classes": classes,
	})
}

func CreateProgram(c *fiber.Ctx) error {
	reqData := c.Locals("validatedProgram").(*programValidator.ProgramRequest)
	db := database.Database.Db

	slug, err := uniqueSlug(db, reqData.Title, 0)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create program!", nil)
	}

	program := academy.Program{
		Title:         reqData.Title,
		Slug:          slug,
		Description:   reqData.Description,
		Category:      reqData.Category,
		Price:         reqData.Price,
		DurationHours: reqData.DurationHours,
		Status:        academy.ProgramDraft,
		ThumbnailURL:  reqData.ThumbnailURL,
	}
	if err := db.Create(&program).Error; err != nil {
		log.Errorf("create program: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create program!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Program created successfully!", program)
}

func UpdateProgram(c *fiber.Ctx) error {
	reqData := c.Locals("validatedProgram").(*programValidator.ProgramRequest)
	db := database.Database.Db

	program, err := findProgram(db, c.Locals("id").(uint))
	if err != nil {
		return notFoundOr500(c, err, "Program")
	}

	updates := map[string]interface{}{
		"title":          reqData.Title,
		"description":    reqData.Description,
		"category":       reqData.Category,
		"price":          reqData.Price,
		"duration_hours": reqData.DurationHours,
		"thumbnail_url":  reqData.ThumbnailURL,
	}
	if reqData.Title != program.Title {
		slug, err := uniqueSlug(db, reqData.Title, program.ID)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update program!", nil)
		}
		updates["slug"] = slug
	}

	if err := db.Model(&program).Updates(updates).Error; err != nil {
		log.Errorf("update program %d: %v", program.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update program!", nil)
	}
	db.First(&program, program.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Program updated successfully!", program)
}

func DeleteProgram(c *fiber.Ctx) error {
	db := database.Database.Db

	program, err := findProgram(db, c.Locals("id").(uint))
	if err != nil {
		return notFoundOr500(c, err, "Program")
	}

	if err := db.Model(&program).Update("is_deleted", true).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete program!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Program deleted successfully!", nil)
}

func PublishProgram(c *fiber.Ctx) error {
	return setProgramStatus(c, academy.ProgramPublished)
}

func ArchiveProgram(c *fiber.Ctx) error {
	return setProgramStatus(c, academy.ProgramArchived)
}

func setProgramStatus(c *fiber.Ctx, status string) error {
	db := database.Database.Db

	program, err := findProgram(db, c.Locals("id").(uint))
	if err != nil {
		return notFoundOr500(c, err, "Program")
	}

	if err := db.Model(&program).Update("status", status).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update program status!", nil)
	}
	program.Status = status

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Program status updated!", program)
}
