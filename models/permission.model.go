package models

import (
	"gorm.io/gorm"
)

// Permission grants a single named capability (e.g. "enrollment:reconcile") to a user.
type Permission struct {
	gorm.Model
	UserID     uint   `gorm:"not null;index"`
	Role       string `gorm:"size:20"`
	Permission string `gorm:"type:varchar(255)"`
	IsDeleted  bool   `gorm:"default:false"`
}

// DefaultPermissions returns the capabilities seeded for a role.
func DefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			"program:manage",
			"class:manage",
			"enrollment:manage",
			"enrollment:reconcile",
			"certificate:manage",
			"broadcast:send",
			"support:manage",
			"dashboard:view",
		}
	case RoleTrainer:
		return []string{
			"content:manage",
			"quiz:grade",
			"forum:moderate",
		}
	default:
		return []string{
			"enroll",
			"learn",
			"forum:post",
			"support:create",
		}
	}
}
