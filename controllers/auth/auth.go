package authController

import (
	"errors"
	"strings"
	"time"

	"garuda/config"
	"garuda/database"
	"garuda/middleware"
	"garuda/models"
	"garuda/utils"
	"garuda/utils/logger"
	authValidator "garuda/validators/auth"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var log = logger.Component("auth")

func Signup(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*authValidator.SignupRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	// Check if email already exists
	if err := db.Where("email = ?", reqData.Email).First(&models.User{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	var referrer *models.User
	if reqData.ReferralCode != "" {
		var r models.User
		if err := db.Where("referral_code = ? AND is_deleted = ?", reqData.ReferralCode, false).First(&r).Error; err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"referral_code": "Unknown referral code!"})
		}
		referrer = &r
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		log.Errorf("hash password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	newUser := models.User{
		Name:         reqData.Name,
		Email:        reqData.Email,
		Mobile:       reqData.Mobile,
		Role:         models.RoleParticipant,
		Password:     string(hashedPassword),
		ReferralCode: utils.GenerateReferralCode(),
	}
	if referrer != nil {
		newUser.ReferredBy = &referrer.ID
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newUser).Error; err != nil {
			return err
		}
		if err := middleware.GrantDefaultPermissions(tx, newUser.ID, newUser.Role); err != nil {
			return err
		}
		if referrer != nil {
			return tx.Create(&models.Referral{
				ReferrerID:     referrer.ID,
				ReferredUserID: newUser.ID,
				Code:           reqData.ReferralCode,
				Status:         models.ReferralRegistered,
			}).Error
		}
		return nil
	})
	if err != nil {
		log.Errorf("signup %s: %v", reqData.Email, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to Signup user!", nil)
	}

	utils.SendWelcomeEmail(newUser.Email, newUser.Name)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully.", newUser)
}

func Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLogin").(*authValidator.LoginRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("email = ? AND is_deleted = ?", reqData.Email, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	if !user.IsActive {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Your account is inactive!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Role, user.Email)
	if err != nil {
		log.Errorf("generate token: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token!", nil)
	}

	now := time.Now()
	if err := db.Model(&user).Update("last_login", now).Error; err != nil {
		log.Warnf("update last login for user %d: %v", user.ID, err)
	}
	user.LastLogin = &now

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"token": token,
		"user":  user,
	})
}

func Me(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", session.UserID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	var permissions []string
	database.Database.Db.Model(&models.Permission{}).
		Where("user_id = ? AND is_deleted = ?", user.ID, false).
		Pluck("permission", &permissions)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully!", fiber.Map{
		"user":        user,
		"permissions": permissions,
	})
}

// UpdateProfile changes the caller's name and mobile number.
func UpdateProfile(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	reqData := c.Locals("validatedProfile").(*authValidator.ProfileRequest)

	db := database.Database.Db
	res := db.Model(&models.User{}).
		Where("id = ? AND is_deleted = ?", session.UserID, false).
		Updates(map[string]interface{}{"name": reqData.Name, "mobile": reqData.Mobile})
	if res.Error != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update profile!", nil)
	}
	if res.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	var user models.User
	db.First(&user, session.UserID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated successfully!", user)
}

func ChangePassword(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	reqData := c.Locals("validatedPassword").(*authValidator.ChangePasswordRequest)

	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", session.UserID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.OldPassword)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Old password is incorrect!", nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(reqData.NewPassword), config.AppConfig.SaltRound)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	if err := db.Model(&user).Update("password", string(hashed)).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to change password!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password changed successfully!", nil)
}

// AdminListUsers lists users, optionally filtered by role and name/email search.
func AdminListUsers(c *fiber.Ctx) error {
	reqData := c.Locals("validatedUserList").(*authValidator.UserListQuery)
	page := utils.NewPagination(reqData.Page, reqData.Limit)

	db := database.Database.Db.Model(&models.User{}).Where("is_deleted = ?", false)
	if reqData.Role != "" {
		db = db.Where("role = ?", reqData.Role)
	}
	if s := strings.TrimSpace(reqData.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch users!", nil)
	}

	var users []models.User
	if err := db.Order("created_at desc").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch users!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Users fetched successfully!", fiber.Map{
		"users":      users,
		"pagination": page.Meta(total),
	})
}

// AdminUpdateRole changes a user's role and reseeds their permissions.
func AdminUpdateRole(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	reqData := c.Locals("validatedRole").(*authValidator.UpdateRoleRequest)
	userID := c.Locals("id").(uint)

	if userID == session.UserID {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "You cannot change your own role!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch user!", nil)
	}

	if user.Role == reqData.Role {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Role unchanged.", user)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("role", reqData.Role).Error; err != nil {
			return err
		}
		if err := middleware.RevokePermissions(tx, user.ID); err != nil {
			return err
		}
		return middleware.GrantDefaultPermissions(tx, user.ID, reqData.Role)
	})
	if err != nil {
		log.Errorf("update role of user %d: %v", user.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update role!", nil)
	}
	user.Role = reqData.Role

	log.WithField("user_id", user.ID).Infof("role changed to %s by %d", reqData.Role, session.UserID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Role updated successfully!", user)
}
