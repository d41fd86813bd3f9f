package middleware

import (
	"errors"

	"garuda/database"
	"garuda/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CheckPermissionMiddleware returns a middleware that checks if the user has the required permission.
// Admins pass without a stored grant.
func CheckPermissionMiddleware(requiredPermission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := CurrentSession(c)
		if session == nil {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
		}
		if session.Role == models.RoleAdmin {
			return c.Next()
		}

		var permission models.Permission
		err := database.Database.Db.Where("user_id = ? AND permission = ? AND is_deleted = ?",
			session.UserID, requiredPermission, false).First(&permission).Error

		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
			}
			return JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while checking permissions!", nil)
		}

		return c.Next()
	}
}

// GrantDefaultPermissions stores the role's default permission set for a user
func GrantDefaultPermissions(db *gorm.DB, userID uint, role string) error {
	names := models.DefaultPermissions(role)
	if len(names) == 0 {
		return nil
	}

	rows := make([]models.Permission, 0, len(names))
	for _, name := range names {
		rows = append(rows, models.Permission{UserID: userID, Role: role, Permission: name})
	}
	return db.Create(&rows).Error
}

// RevokePermissions soft-deletes every grant a user holds
func RevokePermissions(db *gorm.DB, userID uint) error {
	return db.Model(&models.Permission{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Update("is_deleted", true).Error
}
