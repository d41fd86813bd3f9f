package certificateController

import (
	"garuda/database"
	"garuda/middleware"
	"garuda/models/academy"
	"garuda/utils/logger"
	certificateValidator "garuda/validators/certificate"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var log = logger.Component("certificate")

func layoutJSON(layout map[string]interface{}) (datatypes.JSON, error) {
	if layout == nil {
		return datatypes.JSON("{}"), nil
	}
	b, err := sonic.Marshal(layout)
	return datatypes.JSON(b), err
}

// clearDefault unsets the default flag on every template except keepID.
func clearDefault(tx *gorm.DB, keepID uint) error {
	return tx.Model(&academy.CertificateTemplate{}).
		Where("is_default = ? AND id <> ?", true, keepID).
		Update("is_default", false).Error
}

func ListTemplates(c *fiber.Ctx) error {
	var templates []academy.CertificateTemplate
	if err := database.Database.Db.Where("is_deleted = ?", false).
		Order("is_default desc, created_at desc").Find(&templates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch templates!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Templates fetched successfully!", templates)
}

func CreateTemplate(c *fiber.Ctx) error {
	reqData := c.Locals("validatedTemplate").(*certificateValidator.TemplateRequest)

	layout, err := layoutJSON(reqData.Layout)
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"layout": "layout must be a JSON object!"})
	}

	db := database.Database.Db
	var count int64
	db.Model(&academy.CertificateTemplate{}).Where("is_deleted = ?", false).Count(&count)

	template := academy.CertificateTemplate{
		Name:          reqData.Name,
		TitleText:     reqData.TitleText,
		BodyText:      reqData.BodyText,
		BackgroundURL: reqData.BackgroundURL,
		Layout:        layout,
		IsDefault:     reqData.IsDefault || count == 0,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&template).Error; err != nil {
			return err
		}
		if template.IsDefault {
			return clearDefault(tx, template.ID)
		}
		return nil
	})
	if err != nil {
		log.Errorf("create template: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create template!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Template created successfully!", template)
}

func UpdateTemplate(c *fiber.Ctx) error {
	reqData := c.Locals("validatedTemplate").(*certificateValidator.TemplateRequest)
	db := database.Database.Db

	var template academy.CertificateTemplate
	if err := db.Where("id = ? AND is_deleted = ?", c.Locals("id").(uint), false).First(&template).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Template not found!", nil)
	}

	layout, err := layoutJSON(reqData.Layout)
	if err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"layout": "layout must be a JSON object!"})
	}

	// the default can only move to another template, never be cleared here
	isDefault := reqData.IsDefault || template.IsDefault

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&template).Updates(map[string]interface{}{
			"name":           reqData.Name,
			"title_text":     reqData.TitleText,
			"body_text":      reqData.BodyText,
			"background_url": reqData.BackgroundURL,
			"layout":         layout,
			"is_default":     isDefault,
		}).Error; err != nil {
			return err
		}
		if isDefault {
			return clearDefault(tx, template.ID)
		}
		return nil
	})
	if err != nil {
		log.Errorf("update template %d: %v", template.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update template!", nil)
	}
	db.First(&template, template.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Template updated successfully!", template)
}

func DeleteTemplate(c *fiber.Ctx) error {
	db := database.Database.Db

	var template academy.CertificateTemplate
	if err := db.Where("id = ? AND is_deleted = ?", c.Locals("id").(uint), false).First(&template).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Template not found!", nil)
	}
	if template.IsDefault {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Set another default template before deleting this one!", nil)
	}

	if err := db.Model(&template).Update("is_deleted", true).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete template!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Template deleted successfully!", nil)
}
