package authValidator

import (
	"strings"

	"garuda/validators"

	"github.com/gofiber/fiber/v2"
)

type SignupRequest struct {
	Name         string `json:"name" validate:"required,min=3,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Mobile       string `json:"mobile" validate:"required,numeric,min=9,max=15"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	ReferralCode string `json:"referral_code" validate:"omitempty,max=32"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type ProfileRequest struct {
	Name   string `json:"name" validate:"required,min=3,max=100"`
	Mobile string `json:"mobile" validate:"required,numeric,min=9,max=15"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN TRAINER PARTICIPANT"`
}

type UserListQuery struct {
	validators.PageQuery
	Role   string `query:"role" json:"role" validate:"omitempty,oneof=ADMIN TRAINER PARTICIPANT"`
	Search string `query:"search" json:"search" validate:"max=100"`
}

// Signup validator middleware
func Signup() fiber.Handler {
	return validators.Body("validatedUser", func(r *SignupRequest, errs map[string]string) {
		r.Name = strings.TrimSpace(r.Name)
		r.Email = strings.ToLower(strings.TrimSpace(r.Email))
		r.ReferralCode = strings.ToUpper(strings.TrimSpace(r.ReferralCode))
		if strings.Contains(r.Password, " ") {
			errs["password"] = "Password must not contain spaces!"
		}
	})
}

// Login validator middleware
func Login() fiber.Handler {
	return validators.Body("validatedLogin", func(r *LoginRequest, _ map[string]string) {
		r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	})
}

func ChangePassword() fiber.Handler {
	return validators.Body("validatedPassword", func(r *ChangePasswordRequest, errs map[string]string) {
		if r.OldPassword != "" && r.OldPassword == r.NewPassword {
			errs["new_password"] = "New password must differ from the old password!"
		}
	})
}

func UpdateProfile() fiber.Handler {
	return validators.Body("validatedProfile", func(r *ProfileRequest, _ map[string]string) {
		r.Name = strings.TrimSpace(r.Name)
	})
}

func UpdateRole() fiber.Handler {
	return validators.Body[UpdateRoleRequest]("validatedRole", nil)
}

func UserList() fiber.Handler {
	return validators.Query[UserListQuery]("validatedUserList", nil)
}
